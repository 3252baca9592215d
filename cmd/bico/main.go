// Command bico builds k-means coresets from point files and stores them in
// a local directory, S3 or MinIO.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bico",
		Short: "Streaming k-means coresets",
		Long: `bico summarizes point streams into small weighted coresets whose k-means
cost approximates that of the full input.

Examples:
  bico build points.csv --k 5                  # coreset into ./coresets
  bico build points.jsonl.zst -c bico.yaml     # settings from a config file
  bico inspect                                 # summarize the latest export
  bico inspect --fit 5                         # cluster the latest export
  bico prune --keep 3                          # drop all but three exports`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "YAML config file")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newPruneCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bico %s\n", version)
		},
	}
}
