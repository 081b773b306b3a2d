package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/catalog"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/visualization"
)

// catalogBase strips the catalog suffix, or failing that the extension.
func catalogBase(path string) string {
	name := filepath.Base(path)
	if base, ok := strings.CutSuffix(name, translate.CatalogSuffix); ok {
		return base
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render <catalog.csv>",
		Short: "Rebuild a viewer graph from an AStRA catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edges, err := catalog.ReadFile(args[0])
			if err != nil {
				return err
			}
			g := graph.FromEdges(edges)
			if err := g.Validate(); err != nil {
				return err
			}

			if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
				return err
			}
			name := catalogBase(args[0]) + translate.GraphSuffix + translate.DocumentSuffix
			if a.cfg.Compress {
				name = catalogBase(args[0]) + translate.GraphSuffix + graph.CompressedExt
			}
			out := filepath.Join(a.cfg.OutputDir, name)
			if err := graph.WriteFile(out, g); err != nil {
				return err
			}

			a.logger.Info("rendered catalog", logging.Path(out), logging.Edges(len(edges)),
				logging.Nodes(len(g.Nodes)), logging.Links(len(g.Links)))
			fmt.Fprintf(cmd.OutOrStdout(), "[+] %s: %d nodes, %d links\n", out, len(g.Nodes), len(g.Links))
			return nil
		},
	}
}

func newLayoutCmd(a *app) *cobra.Command {
	var (
		algorithm string
		output    string
		variant   string
		cfg       = visualization.DefaultConfig()
	)

	cmd := &cobra.Command{
		Use:   "layout <graph.json>",
		Short: "Compute server-side node positions for a viewer graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.ReadFile(args[0])
			if err != nil {
				return err
			}
			if variant == "" {
				variant = a.cfg.Server.Variant
			}
			vis, err := visualization.Compute(g, algorithm, cfg, graph.ParseVariant(variant))
			if err != nil {
				return err
			}
			data, err := vis.ExportJSON()
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&algorithm, "algorithm", visualization.AlgorithmForce, "force, circular or hierarchical")
	flags.StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	flags.StringVar(&variant, "viewer", "", "label variant (provenance or sbom)")
	flags.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "force-directed iterations")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "force-directed seed")
	flags.Float64Var(&cfg.Width, "width", cfg.Width, "canvas width")
	flags.Float64Var(&cfg.Height, "height", cfg.Height, "canvas height")
	return cmd
}
