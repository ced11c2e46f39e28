// Package contact enriches a listing with an email address and social links
// scraped from the listing's own website.
package contact

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/listing-scraper/internal/model"
)

// TextFetcher turns a URL into page text. In crawl mode the implementation may
// follow links within the site and return the combined text.
type TextFetcher interface {
	FetchText(ctx context.Context, url string, crawl bool) (string, error)
}

// Extractor pulls raw contact candidates out of page text.
type Extractor interface {
	Emails(text string) []string
	Socials(text string) []string
}

// Enricher combines a TextFetcher and an Extractor into the enrichment step.
type Enricher struct {
	fetcher   TextFetcher
	extractor Extractor
}

// NewEnricher creates an Enricher. A nil extractor uses RegexExtractor.
func NewEnricher(fetcher TextFetcher, extractor Extractor) *Enricher {
	if extractor == nil {
		extractor = RegexExtractor{}
	}
	return &Enricher{fetcher: fetcher, extractor: extractor}
}

// Enrich scrapes website and returns the selected email and classified social
// links. Failures are logged and yield an empty contact; one bad website never
// aborts the caller's batch.
func (e *Enricher) Enrich(ctx context.Context, website string, crawl bool) model.Contact {
	c, err := e.TryEnrich(ctx, website, crawl)
	if err != nil {
		zap.L().Warn("contact: enrichment failed",
			zap.String("website", website),
			zap.Error(err),
		)
		return model.EmptyContact()
	}
	return c
}

// TryEnrich is Enrich without the error swallowing.
func (e *Enricher) TryEnrich(ctx context.Context, website string, crawl bool) (model.Contact, error) {
	if strings.TrimSpace(website) == "" {
		return model.EmptyContact(), nil
	}

	text, err := e.fetcher.FetchText(ctx, EnsureScheme(website), crawl)
	if err != nil {
		return model.EmptyContact(), err
	}

	return model.Contact{
		Email:   SelectEmail(e.extractor.Emails(text)),
		Socials: ClassifySocials(e.extractor.Socials(text)),
	}, nil
}

// EnsureScheme prefixes http:// to URLs that carry no scheme.
func EnsureScheme(url string) string {
	url = strings.TrimSpace(url)
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "http://" + url
}
