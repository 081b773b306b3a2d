// Package tui is a terminal browser for translated graphs.
package tui

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

type view int

const (
	overviewView view = iota
	nodesView
	linksView
	layersView
)

var viewNames = []string{"Overview", "Nodes", "Links", "Layers"}

// Loader re-reads the graph for the reload key.
type Loader func() (*graph.Graph, error)

type reloadedMsg struct {
	g   *graph.Graph
	err error
}

// Model is the bubbletea model of the browser.
type Model struct {
	name    string
	variant graph.Variant
	g       *graph.Graph
	stats   graph.Stats
	load    Loader

	groups []string
	labels []string
	in     map[string]int
	out    map[string]int

	groupFilter string
	labelFilter string

	current   view
	nodeTable table.Model
	linkTable table.Model
	search    textinput.Model
	help      help.Model
	keys      keyMap

	width      int
	height     int
	message    string
	messageErr bool
}

// Option configures a Model.
type Option func(*Model)

// WithLoader enables the reload key.
func WithLoader(l Loader) Option {
	return func(m *Model) { m.load = l }
}

// WithVariant selects how node labels are shown.
func WithVariant(v graph.Variant) Option {
	return func(m *Model) { m.variant = v }
}

// New creates a browser over g. name is shown in the title.
func New(name string, g *graph.Graph, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "filter by id"
	ti.CharLimit = 120
	ti.Width = 40

	m := Model{
		name:    name,
		variant: graph.VariantProvenance,
		search:  ti,
		help:    help.New(),
		keys:    keys,
		nodeTable: table.New(
			table.WithColumns([]table.Column{
				{Title: "Node", Width: 48},
				{Title: "Group", Width: 12},
				{Title: "Z", Width: 6},
				{Title: "In", Width: 4},
				{Title: "Out", Width: 4},
			}),
			table.WithFocused(true),
			table.WithHeight(12),
		),
		linkTable: table.New(
			table.WithColumns([]table.Column{
				{Title: "Source", Width: 36},
				{Title: "Label", Width: 18},
				{Title: "Target", Width: 36},
			}),
			table.WithFocused(true),
			table.WithHeight(12),
		),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.setGraph(g)
	return m
}

// Run starts the browser and blocks until it exits.
func Run(m Model, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

func (m *Model) setGraph(g *graph.Graph) {
	if g == nil {
		g = graph.New()
	}
	m.g = g
	m.stats = g.ComputeStats()

	m.in = make(map[string]int, len(g.Nodes))
	m.out = make(map[string]int, len(g.Nodes))
	for _, l := range g.Links {
		m.out[l.Source]++
		m.in[l.Target]++
	}

	m.groups = m.groups[:0]
	for group := range m.stats.Groups {
		m.groups = append(m.groups, group)
	}
	// layer order, the order the viewer stacks them in
	sort.Slice(m.groups, func(i, j int) bool {
		zi, zj := graph.ZForGroup(m.groups[i]), graph.ZForGroup(m.groups[j])
		if zi != zj {
			return zi < zj
		}
		return m.groups[i] < m.groups[j]
	})
	m.labels = m.labels[:0]
	for label := range m.stats.Labels {
		m.labels = append(m.labels, label)
	}
	sort.Strings(m.labels)

	if !slices.Contains(m.groups, m.groupFilter) {
		m.groupFilter = ""
	}
	if !slices.Contains(m.labels, m.labelFilter) {
		m.labelFilter = ""
	}
	m.rebuild()
}

// rebuild refreshes both tables from the graph and the active filters.
func (m *Model) rebuild() {
	query := strings.ToLower(strings.TrimSpace(m.search.Value()))

	nodeRows := make([]table.Row, 0, len(m.g.Nodes))
	for _, n := range m.g.Nodes {
		if m.groupFilter != "" && n.Group != m.groupFilter {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(n.ID), query) {
			continue
		}
		nodeRows = append(nodeRows, table.Row{
			graph.NodeLabel(n, m.variant),
			n.Group,
			strconv.FormatFloat(graph.ZForGroup(n.Group), 'f', -1, 64),
			strconv.Itoa(m.in[n.ID]),
			strconv.Itoa(m.out[n.ID]),
		})
	}
	m.nodeTable.SetRows(nodeRows)
	if m.nodeTable.Cursor() >= len(nodeRows) {
		m.nodeTable.SetCursor(max(len(nodeRows)-1, 0))
	}

	linkRows := make([]table.Row, 0, len(m.g.Links))
	for _, l := range m.g.Links {
		if m.labelFilter != "" && l.Label != m.labelFilter {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(l.Source), query) &&
			!strings.Contains(strings.ToLower(l.Target), query) {
			continue
		}
		linkRows = append(linkRows, table.Row{l.Source, l.Label, l.Target})
	}
	m.linkTable.SetRows(linkRows)
	if m.linkTable.Cursor() >= len(linkRows) {
		m.linkTable.SetCursor(max(len(linkRows)-1, 0))
	}

	m.restyle()
}

// restyle colours each table's selected row by its group or label.
func (m *Model) restyle() {
	base := table.DefaultStyles()
	base.Header = base.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)

	ns := base
	if row := m.nodeTable.SelectedRow(); row != nil {
		ns.Selected = ns.Selected.Foreground(lipgloss.Color("#000000")).Background(groupColor(row[1])).Bold(true)
	}
	m.nodeTable.SetStyles(ns)

	ls := base
	if row := m.linkTable.SelectedRow(); row != nil {
		ls.Selected = ls.Selected.Foreground(lipgloss.Color("#000000")).Background(linkColor(row[1])).Bold(true)
	}
	m.linkTable.SetStyles(ls)
}

func cycle(values []string, current string) string {
	if len(values) == 0 {
		return ""
	}
	i := slices.Index(values, current)
	if i == len(values)-1 {
		return ""
	}
	return values[i+1]
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) reload() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		g, err := load()
		return reloadedMsg{g: g, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h := max(msg.Height-14, 5)
		m.nodeTable.SetHeight(h)
		m.linkTable.SetHeight(h)
		return m, nil

	case reloadedMsg:
		if msg.err != nil {
			m.message = "Reload failed: " + msg.err.Error()
			m.messageErr = true
			return m, nil
		}
		m.setGraph(msg.g)
		m.message = fmt.Sprintf("Reloaded %d nodes and %d links", m.stats.Nodes, m.stats.Links)
		m.messageErr = false
		return m, nil

	case tea.KeyMsg:
		if m.search.Focused() {
			switch msg.Type {
			case tea.KeyEnter:
				m.search.Blur()
			case tea.KeyEsc:
				m.search.SetValue("")
				m.search.Blur()
				m.rebuild()
			default:
				m.search, cmd = m.search.Update(msg)
				m.rebuild()
			}
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.current = (m.current + 1) % view(len(viewNames))
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.current = (m.current + view(len(viewNames)) - 1) % view(len(viewNames))
			return m, nil
		case key.Matches(msg, m.keys.Group):
			m.groupFilter = cycle(m.groups, m.groupFilter)
			m.rebuild()
			return m, nil
		case key.Matches(msg, m.keys.Label):
			m.labelFilter = cycle(m.labels, m.labelFilter)
			m.rebuild()
			return m, nil
		case key.Matches(msg, m.keys.Search):
			if m.current == nodesView || m.current == linksView {
				cmd = m.search.Focus()
			}
			return m, cmd
		case key.Matches(msg, m.keys.Clear):
			m.groupFilter, m.labelFilter = "", ""
			m.search.SetValue("")
			m.message = ""
			m.rebuild()
			return m, nil
		case key.Matches(msg, m.keys.Reload):
			if m.load == nil {
				m.message = "Reload is not available for this graph"
				m.messageErr = true
				return m, nil
			}
			return m, m.reload()
		}
	}

	switch m.current {
	case nodesView:
		m.nodeTable, cmd = m.nodeTable.Update(msg)
		m.restyle()
	case linksView:
		m.linkTable, cmd = m.linkTable.Update(msg)
		m.restyle()
	}
	return m, cmd
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("AStRA graph browser: " + m.name))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.current {
	case overviewView:
		s.WriteString(m.renderOverview())
	case nodesView:
		s.WriteString(m.renderTable("Nodes", m.nodeTable, m.filterLine(m.groupFilter, groupStyle)))
	case linksView:
		s.WriteString(m.renderTable("Links", m.linkTable, m.filterLine(m.labelFilter, labelStyle)))
	case layersView:
		s.WriteString(m.renderLayers())
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

func (m Model) renderTabs() string {
	rendered := make([]string, 0, len(viewNames))
	for i, name := range viewNames {
		if view(i) == m.current {
			rendered = append(rendered, activeTabStyle.Render(name))
		} else {
			rendered = append(rendered, inactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderOverview() string {
	statsContent := fmt.Sprintf("Statistics\n\nNodes:    %d\nLinks:    %d\nSources:  %d\nSinks:    %d",
		m.stats.Nodes, m.stats.Links, m.stats.Sources, m.stats.Sinks)

	var groups strings.Builder
	groups.WriteString("Groups\n")
	for _, g := range m.groups {
		fmt.Fprintf(&groups, "\n%s %d", groupStyle(g).Render(fmt.Sprintf("● %-10s", g)), m.stats.Groups[g])
	}
	if len(m.groups) == 0 {
		groups.WriteString("\nnone")
	}

	var labels strings.Builder
	labels.WriteString("Relations\n")
	for _, l := range m.labels {
		fmt.Fprintf(&labels, "\n%s %d", labelStyle(l).Render(fmt.Sprintf("━ %-18s", l)), m.stats.Labels[l])
	}
	if len(m.labels) == 0 {
		labels.WriteString("\nnone")
	}

	return contentStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		statsBoxStyle.Render(statsContent),
		statsBoxStyle.Render(groups.String()),
		statsBoxStyle.Render(labels.String()),
	))
}

func (m Model) filterLine(active string, style func(string) lipgloss.Style) string {
	parts := []string{}
	if active != "" {
		parts = append(parts, "filter: "+style(active).Render(active))
	}
	if m.search.Focused() || m.search.Value() != "" {
		parts = append(parts, m.search.View())
	}
	return strings.Join(parts, "   ")
}

func (m Model) renderTable(title string, t table.Model, filter string) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", title, len(t.Rows()))))
	s.WriteString("\n")
	if filter != "" {
		s.WriteString(filter)
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(t.View())
	return contentStyle.Render(s.String())
}

// renderLayers draws one bar per group in the z order the 3D viewer uses.
func (m Model) renderLayers() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Layers"))
	s.WriteString("\n\n")
	if len(m.groups) == 0 {
		s.WriteString(helpStyle.Render("The graph has no nodes"))
		return contentStyle.Render(s.String())
	}

	largest := 0
	for _, n := range m.stats.Groups {
		largest = max(largest, n)
	}
	const barWidth = 40
	for _, g := range m.groups {
		n := m.stats.Groups[g]
		width := max(n*barWidth/largest, 1)
		fmt.Fprintf(&s, "z=%-5s %-10s %s %d\n",
			strconv.FormatFloat(graph.ZForGroup(g), 'f', -1, 64), g,
			groupStyle(g).Render(strings.Repeat("█", width)), n)
	}
	return contentStyle.Render(s.String())
}
