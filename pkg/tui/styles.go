package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

// cssColors maps the named link colours to terminal hex colours.
var cssColors = map[string]string{
	"deepskyblue": "#00BFFF",
	"violet":      "#EE82EE",
	"gold":        "#FFD700",
	"tomato":      "#FF6347",
	"gray":        "#808080",
}

func linkColor(label string) lipgloss.Color {
	name := graph.LinkColor(label)
	if hex, ok := cssColors[name]; ok {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(cssColors[graph.DefaultLinkColor])
}

func groupColor(group string) lipgloss.Color {
	return lipgloss.Color(graph.GroupColor(group))
}

func groupStyle(group string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(groupColor(group))
}

func labelStyle(label string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(linkColor(label))
}
