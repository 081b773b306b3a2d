package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/api"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/health"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/server"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/watch"
)

// memoryLimit is the heap size above which /health reports degraded.
const memoryLimit = 1 << 30

// inputFlags are shared by the commands that read an input directory.
type inputFlags struct {
	dir     string
	initial bool
}

func (f *inputFlags) register(cmd *cobra.Command, initialDefault bool) {
	cmd.Flags().StringVar(&f.dir, "input", "", "input directory (overrides input_dir)")
	cmd.Flags().BoolVar(&f.initial, "initial", initialDefault, "translate the input directory once before watching")
}

func (f *inputFlags) apply(a *app) {
	if f.dir != "" {
		a.cfg.InputDir = f.dir
	}
}

func newServeCmd(a *app) *cobra.Command {
	var (
		port    int
		watchOn bool
		in      inputFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the viewer, the graph API and live reload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.apply(a)
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			if cmd.Flags().Changed("watch") {
				a.cfg.Watch.Enabled = watchOn
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.serve(cmd.Context(), in.initial)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	cmd.Flags().BoolVar(&watchOn, "watch", false, "watch the input directory and re-translate changes")
	in.register(cmd, false)
	return cmd
}

func (a *app) serve(ctx context.Context, initial bool) error {
	logger := a.logger
	p, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	store, err := api.NewGraphStore(a.cfg.OutputDir, a.cfg.Server.CacheSize, a.metrics, logger)
	if err != nil {
		return err
	}

	checker := health.NewHealthChecker()
	checker.RegisterReadinessCheck("output_dir", health.DirectoryCheck("output_dir", a.cfg.OutputDir))
	checker.RegisterLivenessCheck("api", health.SimpleCheck("api"))
	checker.RegisterCheck("memory", health.MemoryCheck(memoryLimit))
	if p.pg != nil {
		checker.RegisterReadinessCheck("database", health.DatabaseCheck(p.pg.Ping))
	}

	srv, err := api.NewServer(api.ConfigFrom(a.cfg, version), store, p.Translator,
		api.WithHealth(checker),
		api.WithMetrics(a.metrics),
		api.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var w *watch.Watcher
	if a.cfg.Watch.Enabled {
		proc := watch.NewProcessor(p, srv.Hub(), store, logger)
		if w, err = a.newWatcher(proc); err != nil {
			return err
		}
		checker.RegisterCheck("watcher", health.WatcherCheck(w.State))
	}
	if initial && a.cfg.InputDir != "" {
		if err := a.initialPass(ctx, p); err != nil {
			return err
		}
	}

	gs := server.NewGracefulServer(a.cfg.Server.Addr(), srv.Handler(),
		server.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout),
		server.WithShutdownTimeout(a.cfg.Server.ShutdownTimeout),
		server.WithLogger(logger),
	)
	gs.OnShutdown(srv.Close)
	gs.SetReloadFunc(func() error {
		store.Purge()
		logger.Info("graph cache purged")
		return nil
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	if w != nil {
		g.Go(func() error {
			err := w.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		defer cancel()
		return gs.Run(gctx)
	})
	return g.Wait()
}

// initialPass translates the whole input directory once, logging but not
// failing on per-file errors.
func (a *app) initialPass(ctx context.Context, p *pipeline) error {
	report, err := p.TranslateDir(ctx, a.cfg.InputDir)
	if err != nil {
		return fmt.Errorf("initial translation: %w", err)
	}
	a.logger.Info("initial translation done",
		logging.Path(a.cfg.InputDir),
		logging.Count(report.Total),
		logging.Int("failed", report.Failed),
	)
	return nil
}

func (a *app) newWatcher(proc *watch.Processor) (*watch.Watcher, error) {
	if err := watch.CheckOutputDir(a.cfg.InputDir, a.cfg.OutputDir); err != nil {
		return nil, err
	}
	return watch.New(a.cfg.InputDir, a.cfg.Watch.Debounce, proc.Handle,
		watch.WithIgnoreDir(a.cfg.OutputDir),
		watch.WithLogger(a.logger),
		watch.WithMetrics(a.metrics),
	), nil
}
