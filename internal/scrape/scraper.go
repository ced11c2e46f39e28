// Package scrape fetches listing websites and reduces them to plain text for
// contact extraction.
package scrape

import "context"

// Page is the text rendering of one fetched URL.
type Page struct {
	URL        string
	Title      string
	Text       string
	Links      []string // absolute link targets found on the page
	StatusCode int
}

// Result holds a scraped page with its source.
type Result struct {
	Page   Page
	Source string // e.g. "local_http", "jina"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
