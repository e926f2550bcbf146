package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/clinic-phone/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "clinic-phone",
	Short: "Find the public phone number of a medical clinic or doctor",
	Long:  "Searches the web for a clinic, scrapes the top results, votes on the phone numbers found and records the answer. A web-searching LLM can be used instead of local scraping.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
