package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/catalog"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/config"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/metrics"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/source"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	outDir     string
	compress   bool

	stderr  io.Writer
	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Registry
}

// load reads the configuration and applies command line overrides.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("out") {
		cfg.OutputDir = a.outDir
	}
	if flags.Changed("compress") {
		cfg.Compress = a.compress
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.NewJSONLogger(a.stderr, logging.ParseLevel(cfg.LogLevel))
	logging.SetDefaultLogger(a.logger)
	a.metrics = metrics.NewRegistry()
	return nil
}

// pipeline is a translator plus the resources it holds open.
type pipeline struct {
	*translate.Translator
	pg *catalog.PGStore
}

// Close releases the catalog database connection, if any.
func (p *pipeline) Close() {
	if p.pg != nil {
		p.pg.Close()
	}
}

// newPipeline wires a translator from the loaded config. inputs are the
// URIs about to be read; an s3:// input forces an S3 client even when no
// S3 settings are configured.
func (a *app) newPipeline(ctx context.Context, inputs ...string) (*pipeline, error) {
	fetchOpts := []source.Option{
		source.WithLogger(a.logger),
	}
	if a.cfg.MaxInputBytes > 0 {
		fetchOpts = append(fetchOpts, source.WithMaxBytes(a.cfg.MaxInputBytes))
	}
	if a.needsS3(inputs) {
		client, err := source.NewS3Client(ctx, a.cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		fetchOpts = append(fetchOpts, source.WithS3(client))
	}

	p := &pipeline{}
	opts := []translate.Option{
		translate.WithFetcher(source.NewFetcher(fetchOpts...)),
		translate.WithLogger(a.logger),
		translate.WithMetrics(a.metrics),
		translate.WithOutputDir(a.cfg.OutputDir),
		translate.WithCompress(a.cfg.Compress),
		translate.WithWorkers(a.cfg.Workers),
	}
	if a.cfg.Database.URL != "" {
		pg, err := catalog.NewPGStore(ctx, a.cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		p.pg = pg
		opts = append(opts, translate.WithSink(pg))
		a.logger.Info("catalog sink enabled", logging.Component("catalog"))
	}
	p.Translator = translate.New(opts...)
	return p, nil
}

func (a *app) needsS3(inputs []string) bool {
	if a.cfg.S3 != (source.S3Config{}) {
		return true
	}
	for _, in := range inputs {
		if strings.HasPrefix(in, "s3://") {
			return true
		}
	}
	return false
}
