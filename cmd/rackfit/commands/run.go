package commands

import (
	"github.com/DrSkyle/rackfit/pkg/config"
	"github.com/DrSkyle/rackfit/pkg/engine"
	"github.com/DrSkyle/rackfit/pkg/engine/history"
	"github.com/DrSkyle/rackfit/pkg/engine/notifier"
	"github.com/DrSkyle/rackfit/pkg/engine/policy"
	"github.com/DrSkyle/rackfit/pkg/storage"
	"github.com/DrSkyle/rackfit/pkg/telemetry"
	"github.com/DrSkyle/rackfit/pkg/version"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Place every request file on every server file",
	Long: `Reads all r* configurations from the requests directory and all s*
configurations from the servers directory, places each pair and prints one
report per pair, ordered by server file then request file.

Example:
  rackfit run
  rackfit run --workers 4 --output s3://placements/nightly`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		ctx := cmd.Context()

		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, cfg.OtelEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				logger.Warn("Telemetry shutdown failed", "error", err)
			}
		}()

		opts := []engine.Option{
			engine.WithConfig(cfg),
			engine.WithLogger(logger),
			engine.WithOutput(cmd.OutOrStdout()),
		}

		if cfg.Output != "" {
			store, err := storage.Open(ctx, cfg.Output)
			if err != nil {
				return err
			}
			opts = append(opts, engine.WithStore(store))
		}

		if cfg.HistoryPath != "" {
			store, err := storage.Open(ctx, cfg.HistoryPath)
			if err != nil {
				return err
			}
			opts = append(opts, engine.WithHistory(history.NewClient(store)))
		}

		if cfg.RulesFile != "" {
			admission, err := policy.LoadFile(cfg.RulesFile, logger)
			if err != nil {
				return err
			}
			opts = append(opts, engine.WithAdmission(admission))
		}

		if cfg.SlackWebhook != "" {
			opts = append(opts, engine.WithNotifier(notifier.NewSlackClient(cfg.SlackWebhook, "")))
		}

		eng, err := engine.New(ctx, opts...)
		if err != nil {
			return err
		}
		result, err := eng.Run(ctx)
		if err != nil {
			return err
		}

		if cfg.Output != "" {
			logger.Info("Reports stored", "target", cfg.Output, "pairs", len(result.Pairs))
		}
		return nil
	},
}

func init() {
	d := config.Default()
	runCmd.Flags().String("requests", d.RequestsDir, "Directory of request configurations")
	runCmd.Flags().String("servers", d.ServersDir, "Directory of server configurations")
	runCmd.Flags().StringP("output", "o", "", "Artifact directory or s3://bucket/prefix")
	runCmd.Flags().Int("workers", d.Workers, "Pairs placed concurrently")
	runCmd.Flags().String("rules", "", "YAML admission rules")
	runCmd.Flags().String("history", d.HistoryPath, "Run ledger location (empty disables)")
	runCmd.Flags().String("otel-endpoint", "", "OTLP/HTTP endpoint for traces")
	runCmd.Flags().String("slack-webhook", "", "Slack webhook for run summaries")

	bindFlags(runCmd.Flags(), map[string]string{
		"requests_dir":  "requests",
		"servers_dir":   "servers",
		"output":        "output",
		"workers":       "workers",
		"rules_file":    "rules",
		"history_path":  "history",
		"otel_endpoint": "otel-endpoint",
		"slack_webhook": "slack-webhook",
	})
}
