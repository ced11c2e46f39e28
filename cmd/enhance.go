package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/listing-scraper/internal/config"
	"github.com/sells-group/listing-scraper/internal/enhance"
	"github.com/sells-group/listing-scraper/internal/model"
)

var (
	enhanceOutput  string
	enhanceWorkers int
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance <results.csv>",
	Short: "Re-enrich an existing results table",
	Long:  "Probes every listing website in the table, crawls the reachable ones for an email and social profiles, and writes <name>_enhanced.csv. Rows are written as they finish, not in input order.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if enhanceWorkers > 0 {
			cfg.Enhance.Workers = enhanceWorkers
		}
		if err := cfg.Validate("enhance"); err != nil {
			return err
		}

		out := enhanceOutput
		if out == "" {
			out = model.EnhancedPath(args[0])
		}

		sum, err := runEnhance(ctx, cfg, args[0], out)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s, %d with an email, %d skipped\n",
			sum.Processed, out, sum.EmailsFound, sum.Skipped)
		return nil
	},
}

func runEnhance(ctx context.Context, c *config.Config, in, out string) (enhance.Summary, error) {
	e := enhance.New(
		enhance.NewHTTPProber(c.Enhance.ProbeTimeout, c.Enrich.UserAgent),
		buildEnricher(c),
		enhance.Options{
			Workers:   c.Enhance.Workers,
			RateLimit: newLimiter(c.Enhance.RateLimitRPS),
		},
	)
	return e.Run(ctx, in, out)
}

func init() {
	enhanceCmd.Flags().StringVarP(&enhanceOutput, "output", "o", "", "output CSV (default <input>_enhanced.csv)")
	enhanceCmd.Flags().IntVarP(&enhanceWorkers, "workers", "w", 0, "rows processed concurrently (default enhance.workers)")
	rootCmd.AddCommand(enhanceCmd)
}
