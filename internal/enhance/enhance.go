// Package enhance re-enriches a previously written listing table, producing a
// new table with the email and social columns filled in.
package enhance

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/listing-scraper/internal/contact"
	"github.com/sells-group/listing-scraper/internal/model"
	"github.com/sells-group/listing-scraper/internal/table"
)

// Prober decides whether a website is worth enriching.
type Prober interface {
	Accessible(ctx context.Context, url string) bool
}

// ContactEnricher returns contact details for a website, never failing.
type ContactEnricher interface {
	Enrich(ctx context.Context, website string, crawl bool) model.Contact
}

// Options tunes an Enhancer.
type Options struct {
	// Workers bounds the rows processed at once. Default 16.
	Workers int
	// RateLimit, when set, throttles the start of each row's website work.
	RateLimit *rate.Limiter
}

// Summary counts the rows of one enhance run.
type Summary struct {
	Processed   int // rows written, skipped ones included
	EmailsFound int // rows that gained a validated email
	Skipped     int // rows with no website or an unreachable one
}

// Enhancer rewrites a table with enrichment applied to every row.
type Enhancer struct {
	prober   Prober
	enricher ContactEnricher
	opts     Options
}

// New creates an Enhancer.
func New(prober Prober, enricher ContactEnricher, opts Options) *Enhancer {
	if opts.Workers <= 0 {
		opts.Workers = 16
	}
	return &Enhancer{prober: prober, enricher: enricher, opts: opts}
}

// rowResult is one processed row on its way to the writer.
type rowResult struct {
	row     []string
	email   bool
	skipped bool
}

// Run reads inputPath and writes every row to outputPath in completion order.
// Rows are processed concurrently; only the calling goroutine writes.
func (e *Enhancer) Run(ctx context.Context, inputPath, outputPath string) (Summary, error) {
	var sum Summary
	log := zap.L().With(zap.String("input", inputPath), zap.String("output", outputPath))

	in, err := os.Open(inputPath)
	if err != nil {
		return sum, eris.Wrapf(err, "enhance: open %s", inputPath)
	}
	defer func() { _ = in.Close() }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	header, rows, readErrs, err := table.Stream(runCtx, in)
	if err != nil {
		return sum, eris.Wrapf(err, "enhance: read %s", inputPath)
	}

	layout := newLayout(header)
	out, err := table.Create(outputPath, layout.header)
	if err != nil {
		return sum, err
	}

	results := make(chan rowResult, e.opts.Workers)
	dispatchErr := make(chan error, 1)

	go func() {
		defer close(results)
		g, gCtx := errgroup.WithContext(runCtx)
		g.SetLimit(e.opts.Workers)
		for row := range rows {
			g.Go(func() error {
				res, err := e.processRow(gCtx, layout, row)
				if err != nil {
					return err
				}
				select {
				case results <- res:
					return nil
				case <-gCtx.Done():
					return gCtx.Err()
				}
			})
		}
		err := g.Wait()
		if readErr := <-readErrs; readErr != nil && err == nil {
			err = readErr
		}
		dispatchErr <- err
	}()

	start := time.Now()
	var writeErr error
	for res := range results {
		if writeErr != nil {
			continue
		}
		if err := out.Write(res.row); err != nil {
			writeErr = err
			cancel()
			continue
		}
		sum.Processed++
		if res.skipped {
			sum.Skipped++
		}
		if res.email {
			sum.EmailsFound++
		}
		log.Info("enhance: row processed",
			zap.Int("processed", sum.Processed),
			zap.Int("emails_found", sum.EmailsFound),
		)
	}
	runErr := <-dispatchErr

	if err := out.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		return sum, eris.Wrap(writeErr, "enhance: write output")
	}
	if runErr != nil {
		return sum, eris.Wrap(runErr, "enhance: process rows")
	}

	log.Info("enhance: complete",
		zap.Int("processed", sum.Processed),
		zap.Int("emails_found", sum.EmailsFound),
		zap.Int("skipped", sum.Skipped),
		zap.Duration("elapsed", time.Since(start)),
	)
	return sum, nil
}

// processRow probes and enriches one row. Unreachable or website-less rows
// pass through with their existing values.
func (e *Enhancer) processRow(ctx context.Context, l layout, row []string) (rowResult, error) {
	res := rowResult{row: l.pad(row)}

	website := ""
	if l.website >= 0 {
		website = strings.TrimSpace(res.row[l.website])
	}
	if website == "" {
		res.skipped = true
		return res, nil
	}

	if e.opts.RateLimit != nil {
		if err := e.opts.RateLimit.Wait(ctx); err != nil {
			return res, eris.Wrap(err, "enhance: rate limit")
		}
	}

	target := contact.EnsureScheme(website)
	if !e.prober.Accessible(ctx, target) {
		res.skipped = true
		return res, nil
	}

	c := e.enricher.Enrich(ctx, target, true)
	for i, v := range c.Values() {
		res.row[l.contact[i]] = v
	}
	res.email = c.HasEmail()
	return res, nil
}

// layout is the output header and where the enrichment columns land in it.
type layout struct {
	header  []string
	input   int   // width of the input header
	website int   // index of the website column, -1 when absent
	contact []int // output index per model.ContactColumns entry
}

// newLayout appends the enrichment columns the input lacks; columns already
// present are reused.
func newLayout(input []string) layout {
	l := layout{header: append([]string(nil), input...), input: len(input), website: -1}
	idx := table.Index(input)
	if i, ok := idx[model.ColWebsite]; ok {
		l.website = i
	}
	for _, col := range model.ContactColumns() {
		i, ok := idx[col]
		if !ok {
			i = len(l.header)
			l.header = append(l.header, col)
		}
		l.contact = append(l.contact, i)
	}
	return l
}

// pad copies row into the output width. Fields beyond the input header are
// kept after the output columns so appended contact columns never overwrite
// them.
func (l layout) pad(row []string) []string {
	out := make([]string, len(l.header))
	if len(row) <= l.input {
		copy(out, row)
		return out
	}
	zap.L().Warn("enhance: row wider than header, extra fields kept at the end",
		zap.Int("fields", len(row)),
		zap.Int("header", l.input),
	)
	copy(out, row[:l.input])
	return append(out, row[l.input:]...)
}
