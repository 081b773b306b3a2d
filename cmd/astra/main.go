// Command astra translates Debian .buildinfo files and SBOMs into AStRA
// catalogs and 3D viewer graphs, and serves them.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd assembles the command tree. Command output goes to stdout,
// logs go to stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stderr: stderr}

	root := &cobra.Command{
		Use:           "astra",
		Short:         "Build provenance to AStRA translator",
		Long:          "astra turns Debian .buildinfo files and CycloneDX/SPDX SBOMs into AStRA\ncatalogs and force-graph documents for the 3D viewer.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.outDir, "out", "", "output directory")
	flags.BoolVar(&a.compress, "compress", false, "write snappy compressed graphs (.json.sz)")

	root.AddCommand(
		newInputCmd(a, "buildinfo", "Translate Debian .buildinfo files", "buildinfo"),
		newInputCmd(a, "sbom", "Translate CycloneDX or SPDX SBOMs", ""),
		newBatchCmd(a),
		newRenderCmd(a),
		newLayoutCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newTUICmd(a),
	)
	return root
}
