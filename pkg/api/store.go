package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/metrics"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/validation"
)

// ErrGraphNotFound is returned when no graph file exists for a name.
var ErrGraphNotFound = errors.New("graph not found")

// GraphStore serves the graphs written to an output directory. Decoded
// graphs are kept in an LRU cache until the watcher invalidates them.
type GraphStore struct {
	dir     string
	cache   *lru.Cache[string, *graph.Graph]
	metrics *metrics.Registry
	logger  logging.Logger
}

// NewGraphStore creates a store over dir caching up to size graphs.
func NewGraphStore(dir string, size int, reg *metrics.Registry, logger logging.Logger) (*GraphStore, error) {
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	s := &GraphStore{
		dir:     dir,
		metrics: reg,
		logger:  logging.OrNop(logger).With(logging.Component("store")),
	}
	cache, err := lru.NewWithEvict[string, *graph.Graph](size, func(string, *graph.Graph) {
		reg.GraphCacheEvictions.Inc()
	})
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// Dir is the output directory the store reads.
func (s *GraphStore) Dir() string { return s.dir }

// Names lists the graphs present in the output directory, sorted. A
// missing directory has no graphs.
func (s *GraphStore) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := graphName(e.Name())
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func graphName(file string) (string, bool) {
	for _, ext := range []string{graph.CompressedExt, ".json"} {
		if base, ok := strings.CutSuffix(file, translate.GraphSuffix+ext); ok && base != "" {
			return base, true
		}
	}
	return "", false
}

// path finds the file holding name, preferring the uncompressed form.
func (s *GraphStore) path(name string) (string, error) {
	for _, ext := range []string{".json", graph.CompressedExt} {
		p := filepath.Join(s.dir, name+translate.GraphSuffix+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrGraphNotFound, name)
}

// Get returns a copy of the named graph, reading it from disk on a cache
// miss. Callers may annotate or otherwise modify the copy.
func (s *GraphStore) Get(ctx context.Context, name string) (*graph.Graph, error) {
	if err := validation.ValidateGraphName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphNotFound, err)
	}
	if g, ok := s.cache.Get(name); ok {
		s.metrics.RecordCacheLookup(true)
		return g.Clone(), nil
	}
	s.metrics.RecordCacheLookup(false)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	g, err := graph.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", name, err)
	}

	s.Put(name, g)
	s.logger.Debug("loaded graph", logging.Path(p), logging.Nodes(len(g.Nodes)))
	return g.Clone(), nil
}

// Put caches g under name.
func (s *GraphStore) Put(name string, g *graph.Graph) {
	s.cache.Add(name, g)
	s.metrics.GraphsLoaded.Set(float64(s.cache.Len()))
	s.metrics.SetGraphGroups(g.ComputeStats().Groups)
}

// Invalidate drops name from the cache.
func (s *GraphStore) Invalidate(name string) {
	if s.cache.Remove(name) {
		s.logger.Debug("invalidated graph", logging.String("graph", name))
	}
	s.metrics.GraphsLoaded.Set(float64(s.cache.Len()))
}

// Purge drops every cached graph.
func (s *GraphStore) Purge() {
	s.cache.Purge()
	s.metrics.GraphsLoaded.Set(0)
}

// Cached reports how many graphs are cached.
func (s *GraphStore) Cached() int { return s.cache.Len() }
