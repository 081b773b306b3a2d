package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
)

// newInputCmd builds the per-file translate commands. defaultKind is
// used unless --format overrides it; empty means detect.
func newInputCmd(a *app, use, short, defaultKind string) *cobra.Command {
	var format string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   use + " <file|url|s3-uri>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := translate.ParseKind(format)
			if err != nil {
				return err
			}
			p, err := a.newPipeline(cmd.Context(), args...)
			if err != nil {
				return err
			}
			defer p.Close()

			out := cmd.OutOrStdout()
			failed := 0
			for _, uri := range args {
				res, err := p.TranslateFile(cmd.Context(), uri, kind)
				if err != nil {
					failed++
					fmt.Fprintf(out, "[!] %s: %v\n", uri, err)
					continue
				}
				if err := printResult(out, res, asJSON); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d inputs failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", defaultKind, "input format (buildinfo, cyclonedx, spdx); empty detects")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

type resultSummary struct {
	Name    string            `json:"name"`
	Kind    translate.Kind    `json:"kind"`
	Edges   int               `json:"edges"`
	Nodes   int               `json:"nodes"`
	Links   int               `json:"links"`
	Outputs translate.Outputs `json:"outputs"`
}

func summarize(res *translate.Result) resultSummary {
	return resultSummary{
		Name:    res.Base,
		Kind:    res.Kind,
		Edges:   len(res.Edges),
		Nodes:   len(res.Graph.Nodes),
		Links:   len(res.Graph.Links),
		Outputs: res.Outputs,
	}
}

func printResult(w io.Writer, res *translate.Result, asJSON bool) error {
	s := summarize(res)
	if asJSON {
		return json.NewEncoder(w).Encode(s)
	}
	fmt.Fprintf(w, "[+] %s (%s): %d edges, %d nodes, %d links\n", s.Name, s.Kind, s.Edges, s.Nodes, s.Links)
	fmt.Fprintf(w, "    catalog  %s\n", s.Outputs.Catalog)
	fmt.Fprintf(w, "    graph    %s\n", s.Outputs.Graph)
	if s.Outputs.Document != "" {
		fmt.Fprintf(w, "    document %s\n", s.Outputs.Document)
	}
	return nil
}

func newBatchCmd(a *app) *cobra.Command {
	var asJSON, strict bool

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Translate every .buildinfo, .json and .spdx file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			report, err := p.TranslateDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := json.NewEncoder(out).Encode(report); err != nil {
					return err
				}
			} else {
				for _, res := range report.Results {
					s := summarize(res)
					fmt.Fprintf(out, "[+] %s (%s): %d edges -> %s\n", s.Name, s.Kind, s.Edges, s.Outputs.Graph)
				}
				for _, f := range report.Failures {
					fmt.Fprintf(out, "[!] Failed to process %s: %s\n", f.Path, f.Err)
				}
				fmt.Fprintf(out, "%d files, %d translated, %d failed\n", report.Total, report.Succeeded, report.Failed)
			}
			if strict && report.Failed > 0 {
				return fmt.Errorf("%d of %d inputs failed", report.Failed, report.Total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any input fails")
	return cmd
}
