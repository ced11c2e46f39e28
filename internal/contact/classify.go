package contact

import (
	"regexp"
	"strings"

	"github.com/sells-group/listing-scraper/internal/model"
)

// ClassifySocials assigns links to platforms. A link goes to the first
// platform, in model.Platforms order, whose name it contains; matching is
// case-sensitive. A platform keeps the first link assigned to it. Links naming
// no platform are dropped. Every platform key is present in the result.
func ClassifySocials(links []string) map[string]string {
	out := model.EmptyContact().Socials
	for _, link := range links {
		for _, p := range model.Platforms {
			if !strings.Contains(link, p) {
				continue
			}
			if out[p] == "" {
				out[p] = link
			}
			break
		}
	}
	return out
}

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// SelectEmail returns the first candidate that is a valid address once any
// "?query" or ";suffix" tail is stripped, or "" when none is.
func SelectEmail(candidates []string) string {
	for _, c := range candidates {
		c, _, _ = strings.Cut(c, "?")
		c, _, _ = strings.Cut(c, ";")
		c = strings.TrimSpace(c)
		if emailRe.MatchString(c) {
			return c
		}
	}
	return ""
}
