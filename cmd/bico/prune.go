package main

import (
	"fmt"

	"github.com/hupe1980/bico/export"
	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var (
		keep   int
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old exports",
		Long: `Prune removes all but the newest exports under the export prefix. The
export that LATEST points to is always kept.`,
		Args: cobra.NoArgs,
	}

	overlays := []overlay{
		{"keep", func(c *Config) { c.Export.Keep = keep }},
		{"export-prefix", func(c *Config) { c.Export.Prefix = prefix }},
	}
	fl := cmd.Flags()
	fl.IntVar(&keep, "keep", 1, "number of newest exports to keep")
	fl.StringVar(&prefix, "export-prefix", "", "name prefix of exports")
	overlays = append(overlays, storeFlags(cmd)...)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveConfig(cmd, overlays)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("keep") && cfg.Export.Keep == 0 {
			cfg.Export.Keep = keep
		}
		ctx := cmd.Context()
		store, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}

		removed, err := export.Prune(ctx, store, cfg.Export.Prefix, cfg.Export.Keep)
		if err != nil {
			return err
		}
		for _, n := range removed {
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", n)
		}
		return nil
	}
	return cmd
}
