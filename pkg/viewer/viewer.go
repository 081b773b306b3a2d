// Package viewer serves the browser page that renders a graph with
// 3d-force-graph.
package viewer

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

// LibraryURL is where the page loads the 3D renderer from. It must be
// allowed by the page's script-src policy.
const LibraryURL = "https://unpkg.com/3d-force-graph@1"

// ScriptOrigin is the origin of LibraryURL.
const ScriptOrigin = "https://unpkg.com"

//go:embed index.html
var indexHTML string

//go:embed static
var staticFS embed.FS

var page = template.Must(template.New("index").Parse(indexHTML))

// Page is the data rendered into the viewer page.
type Page struct {
	Title   string
	Graph   string
	Variant graph.Variant
	Library string
	Live    bool
}

// Handler renders the viewer page. The graph shown is taken from the
// "graph" query parameter, falling back to defaultGraph.
func Handler(defaultGraph string, variant graph.Variant, live bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("graph")
		if name == "" {
			name = defaultGraph
		}
		v := variant
		if q := r.URL.Query().Get("viewer"); q != "" {
			v = graph.ParseVariant(q)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		err := page.Execute(w, Page{
			Title:   "AStRA graph viewer",
			Graph:   name,
			Variant: v,
			Library: LibraryURL,
			Live:    live,
		})
		if err != nil {
			http.Error(w, "render viewer page", http.StatusInternalServerError)
		}
	}
}

// Static serves the page's scripts and stylesheet under prefix.
func Static(prefix string) http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix(prefix, http.FileServer(http.FS(sub)))
}
