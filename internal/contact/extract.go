package contact

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	emailCandidateRe = regexp.MustCompile(`(?i)(?:mailto:)?[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}[^\s"'<>,)]*`)
	urlRe            = regexp.MustCompile(`(?i)https?://[^\s"'<>()]+`)
)

// socialHosts are the registrable domains treated as social networks.
var socialHosts = []string{
	"discord.gg",
	"discord.com",
	"youtube.com",
	"youtu.be",
	"instagram.com",
	"twitter.com",
	"x.com",
	"facebook.com",
	"fb.com",
	"linkedin.com",
	"github.com",
	"medium.com",
	"reddit.com",
	"pinterest.com",
	"tiktok.com",
}

// RegexExtractor finds emails and social profile URLs in plain text.
type RegexExtractor struct{}

// Emails returns every email-looking token in order of appearance, without
// the mailto: prefix. Duplicates are removed.
func (RegexExtractor) Emails(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range emailCandidateRe.FindAllString(text, -1) {
		if len(m) >= 7 && strings.EqualFold(m[:7], "mailto:") {
			m = m[7:]
		}
		m = strings.TrimRight(m, ".:!")
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// Socials returns every URL whose host is a known social network, in order of
// appearance. Duplicates are removed.
func (RegexExtractor) Socials(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range urlRe.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;:")
		if seen[m] || !isSocialURL(m) {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func isSocialURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for _, h := range socialHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
