package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/live"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/watch"
)

// eventPrinter writes live events as lines of text.
type eventPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *eventPrinter) Publish(ev live.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch ev.Type {
	case live.EventGraphUpdated:
		fmt.Fprintf(p.w, "[+] updated %s\n", ev.Graph)
	case live.EventGraphRemoved:
		fmt.Fprintf(p.w, "[-] removed %s\n", ev.Graph)
	case live.EventTranslationFailed:
		fmt.Fprintf(p.w, "[!] Failed to process %s: %s\n", ev.Graph, ev.Error)
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var in inputFlags

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-translate inputs as they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.apply(a)
			if len(args) == 1 {
				a.cfg.InputDir = args[0]
			}
			if a.cfg.InputDir == "" {
				return fmt.Errorf("no input directory: pass one or set input_dir")
			}

			if err := watch.CheckOutputDir(a.cfg.InputDir, a.cfg.OutputDir); err != nil {
				return err
			}

			p, err := a.newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			if in.initial {
				if err := a.initialPass(cmd.Context(), p); err != nil {
					return err
				}
			}
			proc := watch.NewProcessor(p, &eventPrinter{w: cmd.OutOrStdout()}, nil, a.logger)
			w, err := a.newWatcher(proc)
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
	in.register(cmd, true)
	return cmd
}
