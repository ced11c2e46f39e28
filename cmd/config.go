package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/listing-scraper/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printConfig(cmd, cfg)
	},
}

// printConfig writes c as config.yaml would hold it, with secrets masked.
func printConfig(cmd *cobra.Command, c *config.Config) error {
	shown := *c
	if shown.Jina.Key != "" {
		shown.Jina.Key = "********"
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(shown); err != nil {
		return eris.Wrap(err, "encode config")
	}
	return eris.Wrap(enc.Close(), "encode config")
}

func init() {
	rootCmd.AddCommand(configCmd)
}
