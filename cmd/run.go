package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/listing-scraper/internal/model"
)

var runOpts crawlFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl, then enhance the resulting table",
	Long:  "Runs crawl for the keyword and locations, then enhance on the table it produced.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		job, err := resolveJob(cmd.InOrStdin(), cmd.ErrOrStderr(), runOpts.keyword, runOpts.locations)
		if err != nil {
			return err
		}

		crawled, out, err := runCrawl(ctx, cfg, job, runOpts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d listings written to %s\n", crawled.Written, out)

		enhancedPath := model.EnhancedPath(out)
		enhanced, err := runEnhance(ctx, cfg, out, enhancedPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s, %d with an email\n",
			enhanced.Processed, enhancedPath, enhanced.EmailsFound)
		return nil
	},
}

func init() {
	addCrawlFlags(runCmd, &runOpts)
	rootCmd.AddCommand(runCmd)
}
