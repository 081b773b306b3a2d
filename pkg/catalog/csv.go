// Package catalog persists provenance edges: a CSV catalog file per input
// and an optional PostgreSQL table shared by every translation.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/astra"
)

// Header is the column order of a catalog file.
var Header = []string{"source_type", "source_id", "target_type", "target_id", "relationship"}

// ErrBadHeader is returned when a catalog file does not start with Header.
var ErrBadHeader = errors.New("catalog: unexpected header")

// Write writes the header followed by one row per edge.
func Write(w io.Writer, edges []astra.Edge) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range edges {
		row := []string{string(e.SourceType), e.SourceID, string(e.TargetType), e.TargetID, string(e.Relation)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes a catalog file at path.
func WriteFile(path string, edges []astra.Edge) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, edges); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read parses a catalog written by Write.
func Read(r io.Reader) ([]astra.Edge, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrBadHeader)
	}
	if err != nil {
		return nil, err
	}
	for i, col := range Header {
		if head[i] != col {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i, head[i], col)
		}
	}

	var edges []astra.Edge
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return edges, nil
		}
		if err != nil {
			return nil, err
		}
		edges = append(edges, astra.NewEdge(astra.Group(row[0]), row[1], astra.Relation(row[4]), astra.Group(row[2]), row[3]))
	}
}

// ReadFile parses the catalog file at path.
func ReadFile(path string) ([]astra.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
