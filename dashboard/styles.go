package dashboard

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
)

type styles struct {
	title  lipgloss.Style
	footer lipgloss.Style
	status map[store.Status]lipgloss.Style
	table  table.Styles
}

func newStyles(r *lipgloss.Renderer) styles {
	t := table.DefaultStyles()
	t.Header = r.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Padding(0, 1)
	t.Cell = r.NewStyle().Padding(0, 1)
	t.Selected = r.NewStyle().
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))

	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1),
		footer: r.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		status: map[store.Status]lipgloss.Style{
			store.Waiting:        r.NewStyle().Foreground(lipgloss.Color("245")),
			store.Available:      r.NewStyle().Foreground(lipgloss.Color("42")),
			store.Claiming:       r.NewStyle().Foreground(lipgloss.Color("39")),
			store.Claimed:        r.NewStyle().Foreground(lipgloss.Color("35")),
			store.FailedRetrying: r.NewStyle().Foreground(lipgloss.Color("196")),
		},
		table: t,
	}
}
