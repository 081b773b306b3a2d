package astra

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *Document {
	return &Document{
		Artifacts: []Artifact{{ID: "hello_1.0-1_amd64.deb", Kind: "binary", Name: "hello_1.0-1_amd64.deb", Version: "1.0-1"}},
		Steps: []Step{{
			ID:       "build-hello@1.0-1",
			Command:  "dpkg-buildpackage",
			Consumed: []string{"gcc@12", "hello_1.0.orig.tar.xz"},
			Outputs:  []string{"hello_1.0-1_amd64.deb"},
		}},
		Principals: []Principal{{ID: "debian", Trust: "signed", Builder: "Debian Build Infrastructure"}},
		Resources: []Resource{
			{ID: "gcc@12", Type: "build-dependency"},
			{ID: "hello_1.0.orig.tar.xz", Type: "tarball"},
		},
	}
}

func TestDocumentEdges(t *testing.T) {
	edges := sampleDocument().Edges()
	want := []Edge{
		NewEdge(GroupPrincipal, "debian", RelCarriesOut, GroupStep, "build-hello@1.0-1"),
		NewEdge(GroupResource, "gcc@12", RelUsedBy, GroupStep, "build-hello@1.0-1"),
		NewEdge(GroupResource, "hello_1.0.orig.tar.xz", RelUsedBy, GroupStep, "build-hello@1.0-1"),
		NewEdge(GroupStep, "build-hello@1.0-1", RelProduces, GroupArtifact, "hello_1.0-1_amd64.deb"),
	}
	assert.Equal(t, want, edges)
}

func TestDocumentEdgesNil(t *testing.T) {
	var d *Document
	assert.Nil(t, d.Edges())
}

func TestDocumentLookup(t *testing.T) {
	d := sampleDocument()
	r, ok := d.Resource("gcc@12")
	require.True(t, ok)
	assert.Equal(t, "build-dependency", r.Type)

	_, ok = d.Artifact("missing")
	assert.False(t, ok)
}

func TestDocumentWireNames(t *testing.T) {
	data, err := json.Marshal(sampleDocument())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"artifacts", "step", "principals", "resources"} {
		assert.Contains(t, raw, key)
	}

	edge, err := json.Marshal(NewEdge(GroupStep, "s", RelProduces, GroupArtifact, "a"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"source_type":"Step","source_id":"s","target_type":"Artifact","target_id":"a","relationship":"produces"}`, string(edge))
}

func TestGroupKnown(t *testing.T) {
	for _, g := range Groups {
		assert.True(t, g.Known(), g)
	}
	assert.False(t, Group("Tool").Known())
}
