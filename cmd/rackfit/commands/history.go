package commands

import (
	"fmt"
	"time"

	"github.com/DrSkyle/rackfit/pkg/engine/history"
	"github.com/DrSkyle/rackfit/pkg/storage"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent placement runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.HistoryPath == "" {
			return fmt.Errorf("history is disabled (history_path is empty)")
		}

		store, err := storage.Open(cmd.Context(), cfg.HistoryPath)
		if err != nil {
			return err
		}
		snaps, err := history.NewClient(store).LoadWindow(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(snaps) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}

		header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF99"))
		fmt.Fprintln(out, header.Render(fmt.Sprintf("%-20s %6s %6s %10s %8s %7s",
			"TIME", "WIDTH", "PAIRS", "DEPLOYED", "REPAIRS", "RATE")))
		for _, s := range snaps {
			fmt.Fprintf(out, "%-20s %6d %6d %10s %8d %6.1f%%\n",
				time.Unix(s.Timestamp, 0).Format("2006-01-02 15:04:05"),
				s.SearchWidth,
				s.Pairs,
				fmt.Sprintf("%d/%d", s.Deployed, s.Requests),
				s.Repairs,
				s.Rate()*100,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Runs to show (0 for all)")
}
