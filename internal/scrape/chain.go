package scrape

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Chain tries scrapers in priority order, returning the first success. It
// implements contact.TextFetcher.
type Chain struct {
	PathMatcher *PathMatcher
	scrapers    []Scraper

	// CrawlPages caps how many pages, root included, a crawl-mode fetch reads.
	CrawlPages int
	// CrawlConcurrency bounds parallel sub-page fetches in crawl mode.
	CrawlConcurrency int
}

// NewChain creates a Chain with the given path matcher and scrapers.
// Scrapers are tried in order; the first successful result is returned.
func NewChain(matcher *PathMatcher, scrapers ...Scraper) *Chain {
	return &Chain{
		PathMatcher:      matcher,
		scrapers:         scrapers,
		CrawlPages:       5,
		CrawlConcurrency: 3,
	}
}

// Scrapers returns the scrapers in the order they are tried.
func (c *Chain) Scrapers() []Scraper {
	return c.scrapers
}

// Scrape tries each scraper in order for a single URL.
// Returns the first successful result, or an error if all fail.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	var lastErr error
	for _, s := range c.scrapers {
		if !s.Supports(targetURL) {
			continue
		}
		result, err := s.Scrape(ctx, targetURL)
		if err == nil && result != nil {
			return result, nil
		}
		if err != nil {
			zap.L().Debug("scrape: scraper failed, trying next",
				zap.String("scraper", s.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return nil, eris.Errorf("scrape: no suitable scraper for url: %s", targetURL)
}

// FetchText returns the text of targetURL. In crawl mode it also reads up to
// CrawlPages-1 same-site pages linked from the root, skipping excluded paths,
// and joins their text after the root's. Sub-page failures are skipped.
func (c *Chain) FetchText(ctx context.Context, targetURL string, crawl bool) (string, error) {
	root, err := c.Scrape(ctx, targetURL)
	if err != nil {
		return "", err
	}
	if !crawl || c.CrawlPages <= 1 {
		return root.Page.Text, nil
	}

	links := c.sameSiteLinks(targetURL, root.Page.Links, c.CrawlPages-1)
	if len(links) == 0 {
		return root.Page.Text, nil
	}

	texts := make([]string, len(links))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.CrawlConcurrency, 1))
	for i, link := range links {
		g.Go(func() error {
			res, err := c.Scrape(gCtx, link)
			if err != nil {
				zap.L().Debug("scrape: sub-page failed",
					zap.String("url", link),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			texts[i] = res.Page.Text
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	parts := []string{root.Page.Text}
	for _, t := range texts {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// sameSiteLinks keeps links on the root's host that are not excluded, in page
// order, without duplicates or the root itself.
func (c *Chain) sameSiteLinks(rootURL string, links []string, limit int) []string {
	root, err := url.Parse(rootURL)
	if err != nil {
		return nil
	}
	rootHost := strings.TrimPrefix(strings.ToLower(root.Hostname()), "www.")

	seen := map[string]bool{strings.TrimSuffix(rootURL, "/"): true}
	var out []string
	for _, link := range links {
		if len(out) >= limit {
			break
		}
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		if strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.") != rootHost {
			continue
		}
		key := strings.TrimSuffix(link, "/")
		if seen[key] {
			continue
		}
		seen[key] = true
		if c.PathMatcher != nil && c.PathMatcher.IsExcluded(link) {
			continue
		}
		out = append(out, link)
	}
	return out
}
