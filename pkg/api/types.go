package api

import (
	"time"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
)

// API Request/Response Types

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// GraphListResponse lists the graphs in the output directory.
type GraphListResponse struct {
	Graphs []string `json:"graphs"`
	Count  int      `json:"count"`
}

// StatsResponse wraps the statistics of one graph.
type StatsResponse struct {
	Graph string `json:"graph"`
	graph.Stats
}

// TranslateResponse is returned by POST /api/translate. Outputs is set
// only when the result was saved.
type TranslateResponse struct {
	Name    string             `json:"name"`
	Kind    translate.Kind     `json:"kind"`
	Edges   int                `json:"edges"`
	Nodes   int                `json:"nodes"`
	Saved   bool               `json:"saved"`
	Outputs *translate.Outputs `json:"outputs,omitempty"`
	Graph   *graph.Graph       `json:"graph"`
}

// InfoResponse describes the running service.
type InfoResponse struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Variant   graph.Variant `json:"variant"`
	OutputDir string        `json:"output_dir"`
	Graphs    int           `json:"graphs_cached"`
	Clients   int           `json:"live_clients"`
	Uptime    string        `json:"uptime"`
	StartedAt time.Time     `json:"started_at"`
}
