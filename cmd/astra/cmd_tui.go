package main

import (
	"context"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/api"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/source"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/tui"
)

// graphName maps "<dir>/<name>_graph.json(.sz)" back to <name>.
func graphName(path string) string {
	name := source.BaseName(path)
	name = strings.TrimSuffix(name, graph.CompressedExt)
	name = strings.TrimSuffix(name, translate.DocumentSuffix)
	return strings.TrimSuffix(name, translate.GraphSuffix)
}

// graphLoader resolves arg as a graph file, or else as a graph name in
// the output directory.
func (a *app) graphLoader(ctx context.Context, arg string) (string, tui.Loader, error) {
	if _, err := os.Stat(arg); err == nil {
		return graphName(arg), func() (*graph.Graph, error) { return graph.ReadFile(arg) }, nil
	}
	store, err := api.NewGraphStore(a.cfg.OutputDir, 1, a.metrics, a.logger)
	if err != nil {
		return "", nil, err
	}
	return arg, func() (*graph.Graph, error) {
		store.Invalidate(arg)
		return store.Get(ctx, arg)
	}, nil
}

func newTUICmd(a *app) *cobra.Command {
	var variant string

	cmd := &cobra.Command{
		Use:   "tui <graph.json|name>",
		Short: "Browse a viewer graph in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, load, err := a.graphLoader(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			g, err := load()
			if err != nil {
				return err
			}
			if variant == "" {
				variant = a.cfg.Server.Variant
			}
			m := tui.New(name, g, tui.WithLoader(load), tui.WithVariant(graph.ParseVariant(variant)))
			return tui.Run(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		},
	}
	cmd.Flags().StringVar(&variant, "viewer", "", "label variant (provenance or sbom)")
	return cmd
}
