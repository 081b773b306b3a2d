package graph

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/snappy"
)

// CompressedExt marks graph files stored as snappy framed streams.
const CompressedExt = ".json.sz"

// snappyMagic is the stream identifier chunk that opens every framed
// snappy stream.
var snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")

// Encode writes g as indented JSON, optionally wrapped in snappy framing.
func Encode(w io.Writer, g *Graph, compress bool) error {
	if !compress {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	}

	sw := snappy.NewBufferedWriter(w)
	enc := json.NewEncoder(sw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		sw.Close()
		return err
	}
	return sw.Close()
}

// Decode reads a graph, detecting snappy framing from the stream header.
func Decode(r io.Reader) (*Graph, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(snappyMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}

	var src io.Reader = br
	if bytes.Equal(head, snappyMagic) {
		src = snappy.NewReader(br)
	}

	var g Graph
	if err := json.NewDecoder(src).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Links == nil {
		g.Links = []Link{}
	}
	return &g, nil
}

// WriteFile encodes g to path, compressing when path ends in .json.sz.
func WriteFile(path string, g *Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, g, strings.HasSuffix(path, CompressedExt)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes the graph at path.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
