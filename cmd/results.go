package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/clinic-phone/internal/sink"
)

var (
	resultsLimit  int
	resultsFormat string
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List recorded lookups from the sqlite or postgres sink",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("results"); err != nil {
			return err
		}
		sinks, closers, err := openSinks(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			for _, c := range closers {
				_ = c()
			}
		}()

		entries, err := sinks.List(ctx, resultsLimit)
		if err != nil {
			return err
		}
		return printEntries(cmd.OutOrStdout(), entries, resultsFormat)
	},
}

func init() {
	resultsCmd.Flags().IntVar(&resultsLimit, "limit", 20, "max number of results")
	resultsCmd.Flags().StringVar(&resultsFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(resultsCmd)
}

func printEntries(w io.Writer, entries []sink.Entry, format string) error {
	if entries == nil {
		entries = []sink.Entry{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return eris.Wrap(err, "results: encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("results: unknown format %q", format)
	}
}
