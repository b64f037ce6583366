package commands

import (
	"io"
	"log/slog"

	"github.com/DrSkyle/rackfit/pkg/engine"
	"github.com/DrSkyle/rackfit/pkg/engine/report"
	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"github.com/DrSkyle/rackfit/pkg/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Run placement and browse the results interactively",
	Long: `Places every request/server pair like run, then opens a terminal
browser over the results with per-server utilization. Nothing is written to
stdout, the output store or the history ledger.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		eng, err := engine.New(ctx,
			engine.WithConfig(cfg),
			engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			engine.WithOutput(io.Discard),
		)
		if err != nil {
			return err
		}

		load := func() ([]report.Pair, map[string]tetris.Configuration, error) {
			result, err := eng.Run(ctx)
			if err != nil {
				return nil, nil, err
			}
			return result.Pairs, result.Capacity, nil
		}

		_, err = tea.NewProgram(tui.NewModel(load), tea.WithAltScreen()).Run()
		return err
	},
}
