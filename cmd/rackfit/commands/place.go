package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/DrSkyle/rackfit/pkg/engine"
	awsinv "github.com/DrSkyle/rackfit/pkg/engine/aws"
	"github.com/DrSkyle/rackfit/pkg/engine/policy"
	"github.com/DrSkyle/rackfit/pkg/engine/report"
	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"github.com/DrSkyle/rackfit/pkg/providers/configfile"
	"github.com/DrSkyle/rackfit/pkg/providers/k8s"
	"github.com/spf13/cobra"
)

var placeFlags struct {
	rules      string
	inventory  string
	region     string
	profile    string
	tags       map[string]string
	cluster    string
	kubeconfig string
	selector   string
}

var placeCmd = &cobra.Command{
	Use:   "place <requests-file> [servers-file]",
	Short: "Place a single request/server pair",
	Long: `Parses one request configuration and one server configuration, places
them and prints the report. Accepts .xml, .yaml and .hcl files.

With --inventory the servers come from live infrastructure instead of a file:
running EC2 instances (ec2), the remaining capacity of ECS container
instances (ecs) or schedulable Kubernetes nodes (k8s).

Example:
  rackfit place id/requests/r03.xml id/servers/s01.xml --search-width 4
  rackfit place id/requests/r03.xml --inventory ec2 --tags pool=batch
  rackfit place id/requests/r03.xml --inventory ecs --cluster batch
  rackfit place id/requests/r03.xml --inventory k8s --selector pool=cpu`,
	Args: func(cmd *cobra.Command, args []string) error {
		if placeFlags.inventory != "" {
			return cobra.ExactArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		ctx := cmd.Context()

		opts := []engine.Option{
			engine.WithConfig(cfg),
			engine.WithLogger(logger),
		}
		if placeFlags.rules != "" {
			admission, err := policy.LoadFile(placeFlags.rules, logger)
			if err != nil {
				return err
			}
			opts = append(opts, engine.WithAdmission(admission))
		}

		eng, err := engine.New(ctx, opts...)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if placeFlags.inventory == "" {
			pair, _, err := eng.PlacePair(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return report.WriteText(out, pair.Deployment)
		}

		requests, err := configfile.Parse(args[0])
		if err != nil {
			return err
		}
		servers, names, err := loadInventory(ctx, logger)
		if err != nil {
			return err
		}

		d := eng.Place(ctx, requests, servers)
		if err := report.WriteText(out, d); err != nil {
			return err
		}
		return writeLegend(out, names)
	},
}

func loadInventory(ctx context.Context, logger *slog.Logger) (tetris.Configuration, []string, error) {
	switch placeFlags.inventory {
	case "ec2", "ecs":
		client, err := awsinv.NewClient(ctx, placeFlags.region, placeFlags.profile, logger)
		if err != nil {
			return tetris.Configuration{}, nil, err
		}
		account, err := client.VerifyIdentity(ctx)
		if err != nil {
			return tetris.Configuration{}, nil, err
		}
		logger.Info("AWS identity verified", "account", account)
		if placeFlags.inventory == "ecs" {
			if placeFlags.cluster == "" {
				return tetris.Configuration{}, nil, fmt.Errorf("--cluster is required with --inventory ecs")
			}
			return awsinv.NewClusterInventory(client.Config, placeFlags.cluster, logger).Servers(ctx, 0)
		}
		return awsinv.NewInventory(client.Config, logger).Servers(ctx, 0, placeFlags.tags)
	case "k8s":
		client, err := k8s.NewClient(placeFlags.kubeconfig)
		if err != nil {
			return tetris.Configuration{}, nil, err
		}
		return k8s.NewNodeInventory(client, logger).Servers(ctx, 0, placeFlags.selector)
	default:
		return tetris.Configuration{}, nil, fmt.Errorf("unknown inventory %q (want ec2, ecs or k8s)", placeFlags.inventory)
	}
}

// writeLegend prints which host each server ID stands for.
func writeLegend(w io.Writer, names []string) error {
	for id, name := range names {
		if _, err := fmt.Fprintf(w, "server %d = %s\n", id, name); err != nil {
			return fmt.Errorf("%w: %v", report.ErrWrite, err)
		}
	}
	return nil
}

func init() {
	placeCmd.Flags().StringVar(&placeFlags.rules, "rules", "", "YAML admission rules")
	placeCmd.Flags().StringVar(&placeFlags.inventory, "inventory", "", "Read servers from ec2, ecs or k8s")
	placeCmd.Flags().StringVar(&placeFlags.region, "region", "", "AWS region (ec2, ecs)")
	placeCmd.Flags().StringVar(&placeFlags.profile, "profile", "", "AWS profile (ec2, ecs)")
	placeCmd.Flags().StringToStringVar(&placeFlags.tags, "tags", nil, "Instance tag filters, key=value (ec2)")
	placeCmd.Flags().StringVar(&placeFlags.cluster, "cluster", "", "ECS cluster name or ARN (ecs)")
	placeCmd.Flags().StringVar(&placeFlags.kubeconfig, "kubeconfig", "", "Path to kubeconfig (k8s)")
	placeCmd.Flags().StringVar(&placeFlags.selector, "selector", "", "Node label selector (k8s)")
}
