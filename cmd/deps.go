package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/listing-scraper/internal/checkpoint"
	"github.com/sells-group/listing-scraper/internal/config"
	"github.com/sells-group/listing-scraper/internal/contact"
	"github.com/sells-group/listing-scraper/internal/directory"
	"github.com/sells-group/listing-scraper/internal/resilience"
	"github.com/sells-group/listing-scraper/internal/scrape"
	"github.com/sells-group/listing-scraper/pkg/jina"
)

// newLimiter returns nil when rps is not positive.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// buildFetcher wires the directory page fetcher for keyword.
func buildFetcher(c *config.Config, keyword string) *directory.Fetcher {
	return directory.NewFetcher(directory.FetchOptions{
		BaseURL:   c.Directory.BaseURL,
		Keyword:   keyword,
		UserAgent: c.Directory.UserAgent,
		Timeout:   c.Directory.Timeout,
		Retry: resilience.RetryConfig{
			MaxAttempts:    c.Fetch.MaxRetries,
			InitialBackoff: c.Fetch.InitialWait,
			MaxBackoff:     c.Fetch.MaxWait,
			Multiplier:     c.Fetch.Multiplier,
			JitterFraction: c.Fetch.JitterFraction,
		},
		RateLimit: newLimiter(c.Fetch.RateLimitRPS),
	})
}

// buildScrapeChain returns the local scraper, followed by Jina Reader when a
// key is configured.
func buildScrapeChain(c *config.Config) *scrape.Chain {
	scrapers := []scrape.Scraper{scrape.NewLocalScraper(c.Enrich.Timeout, c.Enrich.UserAgent)}
	if c.Jina.Key != "" {
		client := jina.NewClient(c.Jina.Key, jina.WithBaseURL(c.Jina.BaseURL))
		scrapers = append(scrapers, scrape.NewJinaAdapter(client))
	} else {
		zap.L().Debug("jina key not set, local scraping only")
	}

	chain := scrape.NewChain(scrape.NewPathMatcher(c.Enrich.ExcludePaths), scrapers...)
	chain.CrawlPages = c.Enrich.CrawlMaxPages
	chain.CrawlConcurrency = c.Enrich.CrawlConcurrency
	return chain
}

func buildEnricher(c *config.Config) *contact.Enricher {
	return contact.NewEnricher(buildScrapeChain(c), contact.RegexExtractor{})
}

// openCheckpoint opens and migrates the cursor database at path.
func openCheckpoint(ctx context.Context, path string) (*checkpoint.Store, error) {
	st, err := checkpoint.Open(path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate checkpoint")
	}
	return st, nil
}
