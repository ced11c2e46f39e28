// Package model holds the records that flow through the crawl and enhance pipelines.
package model

// Platforms is the fixed, ordered set of social networks a listing can link to.
// Order matters: a link is classified under the first platform it mentions.
var Platforms = []string{
	"discord",
	"youtube",
	"instagram",
	"twitter",
	"facebook",
	"linkedin",
	"github",
	"medium",
	"reddit",
	"pinterest",
	"tiktok",
}

// Column names of the output table.
const (
	ColRank         = "Rank"
	ColName         = "Business Name"
	ColPhone        = "Phone Number"
	ColBusinessPage = "Business Page"
	ColWebsite      = "Website"
	ColCategory     = "Category"
	ColRating       = "Rating"
	ColStreet       = "Street Name"
	ColLocality     = "Locality"
	ColRegion       = "Region"
	ColZipcode      = "Zipcode"
	ColEmail        = "Emails"
)

// ListingColumns are the columns produced by extraction, before enrichment.
func ListingColumns() []string {
	return []string{
		ColRank,
		ColName,
		ColPhone,
		ColBusinessPage,
		ColWebsite,
		ColCategory,
		ColRating,
		ColStreet,
		ColLocality,
		ColRegion,
		ColZipcode,
	}
}

// ContactColumns are the enrichment columns: the email followed by one column
// per platform.
func ContactColumns() []string {
	cols := make([]string, 0, len(Platforms)+1)
	cols = append(cols, ColEmail)
	return append(cols, Platforms...)
}

// Header returns the full output table schema in column order.
func Header() []string {
	return append(ListingColumns(), ContactColumns()...)
}

// Listing is one business entry from a directory results page. Every field is a
// plain string; a missing value is "".
type Listing struct {
	Rank         string
	Name         string
	Phone        string
	BusinessPage string
	Website      string
	Category     string
	Rating       string
	Street       string
	Locality     string
	Region       string
	Zipcode      string

	// Enrichment.
	Email   string
	Socials map[string]string
}

// Row renders the listing in Header() order.
func (l *Listing) Row() []string {
	row := []string{
		l.Rank,
		l.Name,
		l.Phone,
		l.BusinessPage,
		l.Website,
		l.Category,
		l.Rating,
		l.Street,
		l.Locality,
		l.Region,
		l.Zipcode,
		l.Email,
	}
	for _, p := range Platforms {
		row = append(row, l.Socials[p])
	}
	return row
}

// Rows renders a batch of listings.
func Rows(listings []*Listing) [][]string {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, l.Row())
	}
	return rows
}
