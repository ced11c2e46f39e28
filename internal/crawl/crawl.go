// Package crawl drives a search job across its locations: it pages through the
// directory, batches the extracted listings, enriches each batch and appends
// it to the output table.
package crawl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/listing-scraper/internal/checkpoint"
	"github.com/sells-group/listing-scraper/internal/directory"
	"github.com/sells-group/listing-scraper/internal/model"
)

// PageFetcher returns the raw results page for a location. An error means no
// more data is available for that page.
type PageFetcher interface {
	Fetch(ctx context.Context, location string, page int) ([]byte, error)
}

// Enricher looks up contact details for a website. It never fails; a bad
// website yields an empty contact.
type Enricher interface {
	Enrich(ctx context.Context, website string, crawl bool) model.Contact
}

// Sink receives rendered rows and returns the running row total.
type Sink interface {
	Append(rows [][]string) (int, error)
}

// Checkpointer persists pagination progress per location.
type Checkpointer interface {
	Load(ctx context.Context, keyword, location string) (*checkpoint.Cursor, error)
	Save(ctx context.Context, c checkpoint.Cursor) error
}

// Options tunes a Crawler.
type Options struct {
	BaseURL   string // prefixes relative business page links
	BatchSize int    // listings buffered before a flush; default 30
	PageSize  int    // listings per results page; default directory.PageSize
}

// Summary reports what a run did.
type Summary struct {
	RunID     string
	Locations int // locations crawled to the end of their pages
	Failed    int // locations stopped by a fetch or parse failure
	Skipped   int // locations already completed by a previous run
	Pages     int
	Listings  int
	Written   int
}

// Crawler runs search jobs.
type Crawler struct {
	fetcher    PageFetcher
	enricher   Enricher
	sink       Sink
	checkpoint Checkpointer
	opts       Options
}

// New creates a Crawler. A nil enricher writes listings without contact
// details.
func New(fetcher PageFetcher, enricher Enricher, sink Sink, opts Options) *Crawler {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 30
	}
	if opts.PageSize <= 0 {
		opts.PageSize = directory.PageSize
	}
	return &Crawler{
		fetcher:  fetcher,
		enricher: enricher,
		sink:     sink,
		opts:     opts,
	}
}

// WithCheckpoint makes the crawler resume each location from its saved cursor
// and record progress after every flush.
func (c *Crawler) WithCheckpoint(cp Checkpointer) *Crawler {
	c.checkpoint = cp
	return c
}

// Run crawls every location of job in order. Fetch failures end the affected
// location only; a write failure or cancellation ends the run.
func (c *Crawler) Run(ctx context.Context, job model.SearchJob) (Summary, error) {
	sum := Summary{RunID: uuid.New().String()}
	log := zap.L().With(
		zap.String("run_id", sum.RunID),
		zap.String("keyword", job.Keyword),
	)
	start := time.Now()
	log.Info("crawl: starting", zap.Int("locations", len(job.Locations)))

	for _, location := range job.Locations {
		if err := ctx.Err(); err != nil {
			return sum, eris.Wrap(err, "crawl: cancelled")
		}
		if err := c.crawlLocation(ctx, log.With(zap.String("location", location)), job.Keyword, location, &sum); err != nil {
			return sum, err
		}
	}

	log.Info("crawl: complete",
		zap.Int("pages", sum.Pages),
		zap.Int("listings", sum.Listings),
		zap.Int("written", sum.Written),
		zap.Int("failed_locations", sum.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return sum, nil
}

func (c *Crawler) crawlLocation(ctx context.Context, log *zap.Logger, keyword, location string, sum *Summary) error {
	page, bound := 1, 1

	if c.checkpoint != nil {
		cur, err := c.checkpoint.Load(ctx, keyword, location)
		if err != nil {
			return err
		}
		if cur != nil {
			if cur.Done {
				log.Info("crawl: location already complete, skipping")
				sum.Skipped++
				return nil
			}
			page, bound = max(cur.NextPage, 1), cur.PageBound
			log.Info("crawl: resuming location", zap.Int("page", page), zap.Int("page_bound", bound))
		}
	}

	var batch []*model.Listing
	failed := false

	for page <= bound {
		content, err := c.fetcher.Fetch(ctx, location, page)
		if err != nil {
			if ctx.Err() != nil {
				return eris.Wrap(ctx.Err(), "crawl: cancelled")
			}
			log.Warn("crawl: page unavailable, ending location", zap.Int("page", page), zap.Error(err))
			failed = true
			break
		}

		res, err := directory.ParsePage(content, c.opts.BaseURL)
		if err != nil {
			log.Warn("crawl: page unreadable, ending location", zap.Int("page", page), zap.Error(err))
			failed = true
			break
		}

		bound = directory.PageBound(res.TotalResults, c.opts.PageSize)
		sum.Pages++
		sum.Listings += len(res.Listings)
		batch = append(batch, res.Listings...)

		log.Debug("crawl: page parsed",
			zap.Int("page", page),
			zap.Int("page_bound", bound),
			zap.Int("listings", len(res.Listings)),
			zap.Int("total_results", res.TotalResults),
		)

		page++

		if len(batch) >= c.opts.BatchSize {
			if err := c.flush(ctx, batch, sum); err != nil {
				return err
			}
			batch = batch[:0]
			if err := c.save(ctx, keyword, location, page, bound, false, sum.RunID); err != nil {
				return err
			}
		}
	}

	if len(batch) > 0 {
		if err := c.flush(ctx, batch, sum); err != nil {
			return err
		}
	}
	if err := c.save(ctx, keyword, location, page, bound, !failed, sum.RunID); err != nil {
		return err
	}

	if failed {
		sum.Failed++
	} else {
		sum.Locations++
	}
	log.Info("crawl: location finished", zap.Int("last_page", page-1), zap.Bool("failed", failed))
	return nil
}

// flush enriches the batch one listing at a time and appends it to the sink.
func (c *Crawler) flush(ctx context.Context, batch []*model.Listing, sum *Summary) error {
	if c.enricher != nil {
		for _, l := range batch {
			c.enricher.Enrich(ctx, l.Website, false).Apply(l)
		}
	}

	total, err := c.sink.Append(model.Rows(batch))
	if err != nil {
		return eris.Wrap(err, "crawl: write batch")
	}
	sum.Written = total
	return nil
}

func (c *Crawler) save(ctx context.Context, keyword, location string, next, bound int, done bool, runID string) error {
	if c.checkpoint == nil {
		return nil
	}
	err := c.checkpoint.Save(ctx, checkpoint.Cursor{
		Keyword:   keyword,
		Location:  location,
		NextPage:  next,
		PageBound: bound,
		Done:      done,
		RunID:     runID,
	})
	return eris.Wrap(err, "crawl: save checkpoint")
}
