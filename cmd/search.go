package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/clinic-phone/internal/model"
)

var searchEngine string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Look up the phone number of one clinic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initLookup(ctx, cfg, "search")
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Orchestrator.SearchClinic(ctx, strings.Join(args, " "), searchEngine)
		return printResult(cmd.OutOrStdout(), result)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchEngine, "engine", "", "engine override: local or deepsearch (default from config)")
	rootCmd.AddCommand(searchCmd)
}

func printResult(w io.Writer, result *model.ResultRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
