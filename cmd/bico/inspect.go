package main

import (
	"context"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
	"github.com/hupe1980/bico"
	"github.com/hupe1980/bico/export"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var (
		fitK   int
		seed   uint64
		list   bool
		asJSON bool
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "inspect [name]",
		Short: "Summarize a stored coreset",
		Long: `Inspect loads an export (the latest one unless a name is given) and prints
its summary. With --fit the coreset is clustered into k centers.`,
		Args: cobra.MaximumNArgs(1),
	}

	overlays := []overlay{
		{"export-prefix", func(c *Config) { c.Export.Prefix = prefix }},
	}
	fl := cmd.Flags()
	fl.IntVar(&fitK, "fit", 0, "cluster the coreset into this many centers")
	fl.Uint64Var(&seed, "seed", 1, "k-means initialization seed")
	fl.BoolVar(&list, "list", false, "list exports instead of inspecting one")
	fl.BoolVar(&asJSON, "json", false, "print the document as JSON")
	fl.StringVar(&prefix, "export-prefix", "", "name prefix of exports")
	overlays = append(overlays, storeFlags(cmd)...)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd, overlays)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}

		if list {
			names, err := export.List(ctx, store, cfg.Export.Prefix)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		}

		var doc *export.Document
		if len(args) == 1 {
			doc, err = export.Read(ctx, store, args[0])
		} else {
			doc, err = export.Latest(ctx, store, cfg.Export.Prefix)
		}
		if err != nil {
			return err
		}

		if asJSON {
			data, err := gojson.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		printSummary(cmd.OutOrStdout(), doc)
		if fitK > 0 {
			return printFit(ctx, cmd.OutOrStdout(), doc, fitK, seed)
		}
		return nil
	}
	return cmd
}

func printSummary(w io.Writer, doc *export.Document) {
	fmt.Fprintf(w, "id:           %s\n", doc.ID)
	fmt.Fprintf(w, "created:      %s\n", doc.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(w, "dimension:    %d\n", doc.Dimension)
	fmt.Fprintf(w, "k:            %d\n", doc.K)
	fmt.Fprintf(w, "metric:       %s\n", doc.Metric)
	fmt.Fprintf(w, "points:       %d\n", doc.Points)
	fmt.Fprintf(w, "coreset size: %d\n", len(doc.Weights))
	fmt.Fprintf(w, "total weight: %g\n", doc.TotalWeight)
	for i, c := range doc.Centers {
		fmt.Fprintf(w, "center %d:     %v\n", i, c)
	}
	if len(doc.Centers) > 0 {
		fmt.Fprintf(w, "inertia:      %g\n", doc.Inertia)
	}
}

func printFit(ctx context.Context, w io.Writer, doc *export.Document, k int, seed uint64) error {
	sol, err := doc.Solution()
	if err != nil {
		return err
	}
	c, err := sol.Cluster(ctx, k, bico.WithClusterSeed(seed))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "fit k=%d inertia=%g iterations=%d converged=%t\n", k, c.Inertia, c.Iterations, c.Converged)
	for i, center := range c.Centers {
		fmt.Fprintf(w, "  %d: %v\n", i, center)
	}
	return nil
}
