package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verdictproj/vouch/internal/config"
	"github.com/verdictproj/vouch/internal/dashboard"
	"github.com/verdictproj/vouch/internal/feedback"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past verification outcomes",
	Long: `History lists verification outcomes recorded in the feedback store,
newest first. The store is populated by verify and correct runs when
feedback.enabled is set in the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		store, err := feedback.Open(cfg.FeedbackDBPath())
		if err != nil {
			return fmt.Errorf("open feedback store: %w", err)
		}
		defer store.Close()

		entries, err := store.Recent(historyLimit)
		if err != nil {
			return err
		}

		fmt.Println(dashboard.RenderHistory(entries))
		if len(entries) == 0 && !cfg.Feedback.Enabled {
			fmt.Println("hint: set feedback.enabled=true to record runs")
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries to show")
}
