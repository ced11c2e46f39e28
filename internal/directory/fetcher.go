// Package directory fetches business-directory search result pages and
// extracts listings from them.
package directory

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/listing-scraper/internal/resilience"
)

// ErrExhausted is returned when a page could not be fetched within the retry
// budget. Callers treat it as "no more data for this location".
var ErrExhausted = eris.New("directory: retries exhausted")

// FetchOptions configures the Fetcher.
type FetchOptions struct {
	BaseURL   string
	Keyword   string
	UserAgent string
	Timeout   time.Duration
	Retry     resilience.RetryConfig

	// RateLimit is an optional limiter applied before every attempt.
	RateLimit *rate.Limiter
}

// Fetcher issues search-page requests with bounded retries and exponential
// wait. Every non-200 response and every transport failure is retried; a page
// that does not exist exhausts the budget just like a network outage.
type Fetcher struct {
	client *http.Client
	opts   FetchOptions
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	opts.Retry.ShouldRetry = resilience.Always
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("directory", "fetch_page")
	}
	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// DefaultUserAgent identifies the crawler as a desktop browser.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/64.0.3282.140 Safari/537.36"

// SearchURL builds the results URL for a location and page.
func SearchURL(baseURL, keyword, location string, page int) string {
	q := url.Values{}
	q.Set("search_terms", keyword)
	q.Set("geo_location_terms", location)
	q.Set("page", strconv.Itoa(page))
	return baseURL + "/search?" + q.Encode()
}

// Fetch returns the raw content of one results page, or an error wrapping
// ErrExhausted once every attempt has failed.
func (f *Fetcher) Fetch(ctx context.Context, location string, page int) ([]byte, error) {
	target := SearchURL(f.opts.BaseURL, f.opts.Keyword, location, page)

	body, err := resilience.DoVal(ctx, f.opts.Retry, func(ctx context.Context) ([]byte, error) {
		return f.get(ctx, target)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "directory: fetch cancelled")
		}
		zap.L().Error("directory: giving up on page",
			zap.String("location", location),
			zap.Int("page", page),
			zap.Error(err),
		)
		return nil, eris.Wrapf(ErrExhausted, "page %d for %q: %v", page, location, err)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	if f.opts.RateLimit != nil {
		if err := f.opts.RateLimit.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "directory: rate limiter wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "directory: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "directory: request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &resilience.StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "directory: read body")
	}
	return body, nil
}
