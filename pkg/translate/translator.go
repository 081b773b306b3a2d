// Package translate turns build provenance inputs (.buildinfo files and
// SBOMs) into AStRA catalogs and viewer graphs.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/astra"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/buildinfo"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/catalog"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/metrics"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/sbom"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/source"
)

// Output file suffixes appended to the input's base name.
const (
	CatalogSuffix  = "_astra_catalog.csv"
	GraphSuffix    = "_graph"
	DocumentSuffix = ".json"
)

// Result is one translated input.
type Result struct {
	Name     string
	Base     string
	Kind     Kind
	Edges    []astra.Edge
	Document *astra.Document // set for buildinfo inputs
	Graph    *graph.Graph
	Outputs  Outputs
}

// Outputs lists the files written for a Result.
type Outputs struct {
	Catalog  string `json:"catalog"`
	Graph    string `json:"graph"`
	Document string `json:"document,omitempty"`
}

// Translator runs the parse, translate and write stages.
type Translator struct {
	parser   *buildinfo.Parser
	fetcher  *source.Fetcher
	sink     catalog.Sink
	metrics  *metrics.Registry
	logger   logging.Logger
	outDir   string
	compress bool
	workers  int
}

// Option configures a Translator.
type Option func(*Translator)

// WithParser sets the buildinfo parser.
func WithParser(p *buildinfo.Parser) Option {
	return func(t *Translator) { t.parser = p }
}

// WithFetcher sets the fetcher used to read input URIs.
func WithFetcher(f *source.Fetcher) Option {
	return func(t *Translator) { t.fetcher = f }
}

// WithSink mirrors every catalog into s.
func WithSink(s catalog.Sink) Option {
	return func(t *Translator) { t.sink = s }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(t *Translator) { t.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(t *Translator) { t.logger = l }
}

// WithOutputDir sets where outputs are written. Defaults to ".".
func WithOutputDir(dir string) Option {
	return func(t *Translator) { t.outDir = dir }
}

// WithCompress writes viewer graphs snappy compressed.
func WithCompress(on bool) Option {
	return func(t *Translator) { t.compress = on }
}

// WithWorkers bounds the number of concurrent translations in TranslateDir.
func WithWorkers(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.workers = n
		}
	}
}

// New creates a Translator.
func New(opts ...Option) *Translator {
	t := &Translator{outDir: ".", workers: 4}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.OrNop(t.logger).With(logging.Component("translate"))
	if t.parser == nil {
		t.parser = buildinfo.NewParser(buildinfo.WithLogger(t.logger))
	}
	if t.fetcher == nil {
		t.fetcher = source.NewFetcher(source.WithLogger(t.logger))
	}
	if t.metrics == nil {
		t.metrics = metrics.DefaultRegistry()
	}
	return t
}

// OutputDir returns the directory outputs are written to.
func (t *Translator) OutputDir() string { return t.outDir }

// Translate converts data without touching the filesystem. An empty kind
// is detected from name and content.
func (t *Translator) Translate(ctx context.Context, name string, data []byte, kind Kind) (res *Result, err error) {
	start := time.Now()
	defer func() {
		label := string(kind)
		if label == "" {
			label = "unknown"
		}
		edges := 0
		if res != nil {
			edges = len(res.Edges)
		}
		t.metrics.RecordTranslation(label, time.Since(start), len(data), edges, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if kind == "" {
		kind, err = DetectKind(name, data)
		if err != nil {
			return nil, NewError("detect").Path(name).Cause(err).Err()
		}
	}

	res = &Result{Name: name, Base: OutputBase(source.BaseName(name)), Kind: kind}
	switch kind {
	case KindBuildinfo:
		doc, err := t.parser.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, NewError("parse").Kind(kind).Path(name).Cause(err).Err()
		}
		res.Document = doc
		res.Edges = doc.Edges()
		res.Graph = graph.FromDocument(doc)
	case KindCycloneDX, KindSPDX:
		doc, err := sbom.LoadAs(kind.format(), name, data)
		if err != nil {
			return nil, NewError("parse").Kind(kind).Path(name).Cause(err).Err()
		}
		res.Edges = sbom.Edges(doc)
		res.Graph = graph.FromEdges(res.Edges)
	default:
		return nil, NewError("detect").Path(name).Cause(fmt.Errorf("%w: %q", ErrUnknownKind, kind)).Err()
	}

	t.logger.Debug("translated input",
		logging.Path(name), logging.Format(string(kind)),
		logging.Edges(len(res.Edges)), logging.Nodes(len(res.Graph.Nodes)))
	return res, nil
}

// TranslateFile fetches uri, translates it and writes the outputs.
func (t *Translator) TranslateFile(ctx context.Context, uri string, kind Kind) (*Result, error) {
	timer := logging.StartTimer(t.logger, "translate file", logging.Path(uri))

	data, err := t.fetcher.Fetch(ctx, uri)
	if err != nil {
		err = NewError("fetch").Kind(kind).Path(uri).Cause(err).Err()
		timer.EndError(err)
		return nil, err
	}

	res, err := t.Translate(ctx, uri, data, kind)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	if err := t.Persist(ctx, res); err != nil {
		timer.EndError(err)
		return nil, err
	}

	timer.End(logging.Format(string(res.Kind)), logging.Edges(len(res.Edges)))
	return res, nil
}

// Persist writes the catalog, the viewer graph and, for buildinfo inputs,
// the AStRA document. The catalog is mirrored to the sink when one is set.
func (t *Translator) Persist(ctx context.Context, res *Result) error {
	if err := os.MkdirAll(t.outDir, 0o755); err != nil {
		return NewError("write").Kind(res.Kind).Path(t.outDir).Cause(err).Err()
	}

	out := Outputs{
		Catalog: filepath.Join(t.outDir, res.Base+CatalogSuffix),
		Graph:   filepath.Join(t.outDir, res.Base+GraphSuffix+".json"),
	}
	if t.compress {
		out.Graph = filepath.Join(t.outDir, res.Base+GraphSuffix+graph.CompressedExt)
	}

	if err := catalog.WriteFile(out.Catalog, res.Edges); err != nil {
		return NewError("write").Kind(res.Kind).Path(out.Catalog).Cause(err).Err()
	}
	if err := graph.WriteFile(out.Graph, res.Graph); err != nil {
		return NewError("write").Kind(res.Kind).Path(out.Graph).Cause(err).Err()
	}
	if res.Document != nil {
		out.Document = filepath.Join(t.outDir, res.Base+DocumentSuffix)
		if err := writeDocument(out.Document, res.Document); err != nil {
			return NewError("write").Kind(res.Kind).Path(out.Document).Cause(err).Err()
		}
	}
	res.Outputs = out

	if t.sink != nil {
		if err := t.sink.WriteEdges(ctx, res.Name, res.Edges); err != nil {
			return NewError("sink").Kind(res.Kind).Path(res.Name).Cause(err).Err()
		}
	}
	return nil
}

// RemoveOutputs deletes every file Persist may have written for base and
// returns the paths it removed. Missing files are skipped.
func (t *Translator) RemoveOutputs(base string) ([]string, error) {
	var removed []string
	for _, p := range []string{
		filepath.Join(t.outDir, base+CatalogSuffix),
		filepath.Join(t.outDir, base+GraphSuffix+".json"),
		filepath.Join(t.outDir, base+GraphSuffix+graph.CompressedExt),
		filepath.Join(t.outDir, base+DocumentSuffix),
	} {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed = append(removed, p)
		case !errors.Is(err, os.ErrNotExist):
			return removed, NewError("remove").Path(p).Cause(err).Err()
		}
	}
	return removed, nil
}

func writeDocument(path string, doc *astra.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
