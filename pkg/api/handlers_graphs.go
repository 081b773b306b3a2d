package api

import (
	"errors"
	"net/http"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/validation"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/visualization"
)

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	v := s.cfg.Variant
	if q := r.URL.Query().Get("viewer"); q != "" {
		v = graph.ParseVariant(q)
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	s.respondJSON(w, http.StatusOK, graph.StyleFor(v))
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.Names()
	if err != nil {
		s.sanitizeError(w, r, err, "list graphs")
		return
	}
	s.respondJSON(w, http.StatusOK, GraphListResponse{Graphs: names, Count: len(names)})
}

// loadGraph resolves the {name} parameter to a graph copy, answering the
// request itself on failure.
func (s *Server) loadGraph(w http.ResponseWriter, r *http.Request) (string, *graph.Graph, bool) {
	name, ok := s.graphName(w, r)
	if !ok {
		return "", nil, false
	}
	g, err := s.store.Get(r.Context(), name)
	if errors.Is(err, ErrGraphNotFound) {
		s.respondError(w, r, http.StatusNotFound, "graph "+name+" not found")
		return "", nil, false
	}
	if err != nil {
		s.sanitizeError(w, r, err, "load graph")
		return "", nil, false
	}
	return name, g, true
}

// handleGetGraph returns the graph annotated for the viewer: every node
// pinned to its group's layer and free in x/y.
func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	_, g, ok := s.loadGraph(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, g.Annotate())
}

func (s *Server) handleGraphStats(w http.ResponseWriter, r *http.Request) {
	name, g, ok := s.loadGraph(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, StatsResponse{Graph: name, Stats: g.ComputeStats()})
}

func (s *Server) handleGraphLayout(w http.ResponseWriter, r *http.Request) {
	iterations, err := queryInt(r, "iterations")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req := validation.LayoutRequest{
		Algorithm:  r.URL.Query().Get("algorithm"),
		Iterations: iterations,
	}
	if err := validation.ValidateLayoutRequest(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	_, g, ok := s.loadGraph(w, r)
	if !ok {
		return
	}

	cfg := visualization.DefaultConfig()
	if req.Iterations > 0 {
		cfg.Iterations = req.Iterations
	}
	viz, err := visualization.Compute(g, req.Algorithm, cfg, s.cfg.Variant)
	if err != nil {
		s.sanitizeError(w, r, err, "compute layout")
		return
	}
	s.respondJSON(w, http.StatusOK, viz)
}
