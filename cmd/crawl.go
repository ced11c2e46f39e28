package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/listing-scraper/internal/config"
	"github.com/sells-group/listing-scraper/internal/crawl"
	"github.com/sells-group/listing-scraper/internal/model"
	"github.com/sells-group/listing-scraper/internal/table"
)

// crawlFlags are shared by the crawl and run commands.
type crawlFlags struct {
	keyword    string
	locations  []string
	output     string
	checkpoint string
	restart    bool
	noEnrich   bool
}

var crawlOpts crawlFlags

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl directory search results for a keyword across locations",
	Long:  "Searches the directory for --keyword in every --location, enriches listings in batches and appends them to <keyword>_results.csv. Without --location, locations are read from stdin, one per line, until a blank line.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("crawl"); err != nil {
			return err
		}

		job, err := resolveJob(cmd.InOrStdin(), cmd.ErrOrStderr(), crawlOpts.keyword, crawlOpts.locations)
		if err != nil {
			return err
		}

		sum, out, err := runCrawl(ctx, cfg, job, crawlOpts)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d listings written to %s (%d pages, %d locations failed)\n",
			sum.Written, out, sum.Pages, sum.Failed)
		return nil
	},
}

// runCrawl executes one search job and returns its summary and output path.
func runCrawl(ctx context.Context, c *config.Config, job model.SearchJob, flags crawlFlags) (crawl.Summary, string, error) {
	out := flags.output
	if out == "" {
		out = job.OutputPath()
	}

	var enricher crawl.Enricher
	if c.Crawl.Enrich && !flags.noEnrich {
		enricher = buildEnricher(c)
	}

	crawler := crawl.New(
		buildFetcher(c, job.Keyword),
		enricher,
		table.NewAppender(out, model.Header()),
		crawl.Options{
			BaseURL:   c.Directory.BaseURL,
			BatchSize: c.Crawl.BatchSize,
			PageSize:  c.Directory.PageSize,
		},
	)

	if flags.checkpoint != "" {
		st, err := openCheckpoint(ctx, flags.checkpoint)
		if err != nil {
			return crawl.Summary{}, out, err
		}
		defer st.Close() //nolint:errcheck

		if flags.restart {
			n, err := st.Reset(ctx, job.Keyword)
			if err != nil {
				return crawl.Summary{}, out, err
			}
			zap.L().Info("checkpoint reset", zap.String("keyword", job.Keyword), zap.Int64("locations", n))
		}
		crawler.WithCheckpoint(st)
	}

	sum, err := crawler.Run(ctx, job)
	if err != nil {
		return sum, out, eris.Wrap(err, "crawl run")
	}
	return sum, out, nil
}

// resolveJob fills in a missing keyword or location list from in, prompting
// on prompt.
func resolveJob(in io.Reader, prompt io.Writer, keyword string, locations []string) (model.SearchJob, error) {
	scanner := bufio.NewScanner(in)

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		fmt.Fprint(prompt, "Search term: ")
		if scanner.Scan() {
			keyword = strings.TrimSpace(scanner.Text())
		}
		if keyword == "" {
			return model.SearchJob{}, eris.New("a search keyword is required")
		}
	}

	if len(locations) == 0 {
		fmt.Fprintln(prompt, "Locations, one per line (blank line to finish):")
		locations = readLocations(scanner)
	}
	if len(locations) == 0 {
		return model.SearchJob{}, eris.New("at least one location is required")
	}
	if err := scanner.Err(); err != nil {
		return model.SearchJob{}, eris.Wrap(err, "read stdin")
	}

	return model.SearchJob{Keyword: keyword, Locations: locations}, nil
}

// readLocations collects trimmed lines until a blank line or end of input.
func readLocations(scanner *bufio.Scanner) []string {
	var locations []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		locations = append(locations, line)
	}
	return locations
}

func addCrawlFlags(cmd *cobra.Command, f *crawlFlags) {
	cmd.Flags().StringVarP(&f.keyword, "keyword", "k", "", "search term, prompted for when empty")
	cmd.Flags().StringArrayVarP(&f.locations, "location", "l", nil, "location to search (repeatable); read from stdin when omitted")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output CSV (default <keyword>_results.csv)")
	cmd.Flags().StringVar(&f.checkpoint, "checkpoint", "", "SQLite file recording crawl progress, enables resume")
	cmd.Flags().BoolVar(&f.restart, "restart", false, "forget saved progress for the keyword before crawling")
	cmd.Flags().BoolVar(&f.noEnrich, "no-enrich", false, "write listings without visiting their websites")
}

func init() {
	addCrawlFlags(crawlCmd, &crawlOpts)
	rootCmd.AddCommand(crawlCmd)
}
