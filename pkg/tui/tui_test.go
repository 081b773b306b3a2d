package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/astra"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

func fixtureGraph() *graph.Graph {
	return graph.NewBuilder().AddEdges([]astra.Edge{
		astra.NewEdge(astra.GroupPrincipal, "Debian", astra.RelCarriesOut, astra.GroupStep, "build"),
		astra.NewEdge(astra.GroupResource, "libc6", astra.RelUsedBy, astra.GroupStep, "build"),
		astra.NewEdge(astra.GroupStep, "build", astra.RelProduces, astra.GroupArtifact, "hello.deb"),
	}).Graph()
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestNewBuildsTables(t *testing.T) {
	m := New("hello", fixtureGraph())

	assert.Len(t, m.nodeTable.Rows(), 4)
	assert.Len(t, m.linkTable.Rows(), 3)
	assert.Equal(t, []string{"Principal", "Step", "Resource", "Artifact"}, m.groups, "groups in layer order")
	assert.Equal(t, []string{"carries_out", "produces", "used_by"}, m.labels)

	row := m.nodeTable.Rows()[0]
	assert.Equal(t, "Principal: Principal::Debian", row[0])
	assert.Equal(t, "-300", row[2])
	assert.Equal(t, "0", row[3])
	assert.Equal(t, "1", row[4])
}

func TestSBOMVariantLabels(t *testing.T) {
	m := New("app", fixtureGraph(), WithVariant(graph.VariantSBOM))
	assert.Equal(t, "Principal::Debian", m.nodeTable.Rows()[0][0])
}

func TestTabsCycle(t *testing.T) {
	m := New("hello", fixtureGraph())
	assert.Equal(t, overviewView, m.current)

	m = press(t, m, "tab", "tab")
	assert.Equal(t, linksView, m.current)
	m = press(t, m, "tab", "tab")
	assert.Equal(t, overviewView, m.current)
	m = press(t, m, "shift+tab")
	assert.Equal(t, layersView, m.current)
}

func TestGroupAndLabelFilters(t *testing.T) {
	m := New("hello", fixtureGraph())

	m = press(t, m, "g")
	assert.Equal(t, "Principal", m.groupFilter)
	assert.Len(t, m.nodeTable.Rows(), 1)

	m = press(t, m, "g")
	assert.Equal(t, "Step", m.groupFilter)
	assert.Len(t, m.nodeTable.Rows(), 1)

	m = press(t, m, "g", "g", "g")
	assert.Equal(t, "", m.groupFilter, "cycles back to all")
	assert.Len(t, m.nodeTable.Rows(), 4)

	m = press(t, m, "l")
	assert.Equal(t, "carries_out", m.labelFilter)
	assert.Len(t, m.linkTable.Rows(), 1)

	m = press(t, m, "esc")
	assert.Equal(t, "", m.labelFilter)
	assert.Len(t, m.linkTable.Rows(), 3)
}

func TestSearch(t *testing.T) {
	m := New("hello", fixtureGraph())
	m = press(t, m, "tab")
	require.Equal(t, nodesView, m.current)

	m = press(t, m, "/")
	require.True(t, m.search.Focused())
	m = press(t, m, "l", "i", "b")
	assert.Len(t, m.nodeTable.Rows(), 1)
	assert.Len(t, m.linkTable.Rows(), 1)

	// keys are typed into the search box while it has focus
	assert.Equal(t, "", m.labelFilter)

	m = press(t, m, "enter")
	assert.False(t, m.search.Focused())
	assert.Len(t, m.nodeTable.Rows(), 1)

	m = press(t, m, "/", "esc")
	assert.Len(t, m.nodeTable.Rows(), 4)
}

func TestSearchOnlyInTables(t *testing.T) {
	m := New("hello", fixtureGraph())
	m = press(t, m, "/")
	assert.False(t, m.search.Focused())
}

func TestReload(t *testing.T) {
	calls := 0
	next := fixtureGraph()
	next.Links = next.Links[:1]
	m := New("hello", fixtureGraph(), WithLoader(func() (*graph.Graph, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("gone")
		}
		return next, nil
	}))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	assert.Equal(t, 1, m.stats.Links)
	assert.Len(t, m.linkTable.Rows(), 1)
	assert.False(t, m.messageErr)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	updated, _ = m.Update(cmd())
	m = updated.(Model)
	assert.True(t, m.messageErr)
	assert.Contains(t, m.message, "gone")
	assert.Equal(t, 1, m.stats.Links, "graph kept on failure")
}

func TestReloadUnavailable(t *testing.T) {
	m := press(t, New("hello", fixtureGraph()), "r")
	assert.True(t, m.messageErr)
}

func TestQuit(t *testing.T) {
	m := New("hello", fixtureGraph())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestViews(t *testing.T) {
	m := New("hello", fixtureGraph())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	out := m.View()
	assert.Contains(t, out, "AStRA graph browser: hello")
	assert.Contains(t, out, "Sources:  2")
	assert.Contains(t, out, "Principal")
	assert.Contains(t, out, "used_by")

	m = press(t, m, "tab")
	assert.Contains(t, m.View(), "Nodes (4)")
	m = press(t, m, "tab")
	assert.Contains(t, m.View(), "Links (3)")
	m = press(t, m, "tab")
	layers := m.View()
	assert.Contains(t, layers, "z=-300")
	assert.Less(t, strings.Index(layers, "Principal"), strings.Index(layers, "Artifact"))
}

func TestEmptyGraph(t *testing.T) {
	m := New("empty", nil)
	assert.Empty(t, m.nodeTable.Rows())
	m = press(t, m, "g", "tab", "tab", "tab")
	assert.Contains(t, m.View(), "The graph has no nodes")
}

func TestLinkColor(t *testing.T) {
	assert.Equal(t, "#00BFFF", string(linkColor("used_by")))
	assert.Equal(t, "#EE82EE", string(linkColor("carries_out")))
	assert.Equal(t, "#FFD700", string(linkColor("produces")))
	assert.Equal(t, "#FF6347", string(linkColor("consumes")))
	assert.Equal(t, "#808080", string(linkColor("whatever")))
}
