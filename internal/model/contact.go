package model

// Contact is the outcome of enriching one website: at most one email and at
// most one link per platform.
type Contact struct {
	Email   string
	Socials map[string]string
}

// EmptyContact returns a contact with every platform key present and blank.
func EmptyContact() Contact {
	socials := make(map[string]string, len(Platforms))
	for _, p := range Platforms {
		socials[p] = ""
	}
	return Contact{Socials: socials}
}

// HasEmail reports whether a validated email was found.
func (c Contact) HasEmail() bool {
	return c.Email != ""
}

// Apply merges the contact into the listing. Enrichment only adds fields.
func (c Contact) Apply(l *Listing) {
	l.Email = c.Email
	if l.Socials == nil {
		l.Socials = make(map[string]string, len(Platforms))
	}
	for _, p := range Platforms {
		l.Socials[p] = c.Socials[p]
	}
}

// Values returns the contact in ContactColumns() order.
func (c Contact) Values() []string {
	vals := make([]string, 0, len(Platforms)+1)
	vals = append(vals, c.Email)
	for _, p := range Platforms {
		vals = append(vals, c.Socials[p])
	}
	return vals
}
