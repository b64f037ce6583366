package commands

import (
	"fmt"
	"time"

	"github.com/DrSkyle/rackfit/pkg/config"
	"github.com/DrSkyle/rackfit/pkg/dataset"
	"github.com/spf13/cobra"
)

var (
	genRequestsDir string
	genServersDir  string
	genOpts        dataset.Options
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a random data set",
	Long: `Clears the requests and servers directories and fills them with random
configurations: vm items with 1-4 cores and 4-16 RAM, serv items with 4-16
cores and 16-64 RAM.

Example:
  rackfit generate
  rackfit generate --request-files 20 --server-files 5 --seed 42`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("seed") {
			genOpts.Seed = uint64(time.Now().UnixNano())
		}

		paths, err := dataset.Generate(genRequestsDir, genServersDir, genOpts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[SUCCESS] Wrote %d files (seed %d)\n", len(paths), genOpts.Seed)
		return nil
	},
}

func init() {
	d := config.Default()
	generateCmd.Flags().StringVar(&genRequestsDir, "requests", d.RequestsDir, "Directory for request files")
	generateCmd.Flags().StringVar(&genServersDir, "servers", d.ServersDir, "Directory for server files")
	generateCmd.Flags().IntVar(&genOpts.RequestFiles, "request-files", 10, "Number of request files")
	generateCmd.Flags().IntVar(&genOpts.ServerFiles, "server-files", 10, "Number of server files")
	generateCmd.Flags().IntVar(&genOpts.RequestSize, "request-size", 0, "VMs per request file (0 draws 10-20)")
	generateCmd.Flags().IntVar(&genOpts.ServerSize, "server-size", 0, "Servers per server file (0 draws 5-10)")
	generateCmd.Flags().Uint64Var(&genOpts.Seed, "seed", 0, "Random seed (default: time based)")
}
