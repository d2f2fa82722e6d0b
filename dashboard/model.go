package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
)

// chrome is the number of lines used around the table.
const chrome = 6

var statusOrder = []store.Status{
	store.Available,
	store.Claiming,
	store.Claimed,
	store.FailedRetrying,
	store.Waiting,
}

type snapshotMsg store.Snapshot

// Option configures a Model.
type Option func(*Model)

// WithRenderer renders the dashboard with r, used to color remote sessions correctly.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(m *Model) {
		m.styles = newStyles(r)
	}
}

// WithQuitKeys replaces the keys that end the program. No keys means the program
// is only stopped from the outside.
func WithQuitKeys(keys ...string) Option {
	return func(m *Model) {
		m.quitKeys = keys
	}
}

// Model shows every tracked asset with its countdown and claim status.
type Model struct {
	updates  <-chan store.Snapshot
	snap     store.Snapshot
	table    table.Model
	styles   styles
	quitKeys []string
}

func Columns() []table.Column {
	return []table.Column{
		{Title: "Asset ID", Width: 16},
		{Title: "Name", Width: 24},
		{Title: "Remaining", Width: 10},
		{Title: "Status", Width: 16},
	}
}

// Rows turns a snapshot into table rows, one per asset in id order.
func Rows(snap store.Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		rows = append(rows, table.Row{
			strconv.FormatUint(e.ID, 10),
			e.Name,
			e.Remaining(),
			e.Status.String(),
		})
	}
	return rows
}

// NewModel builds a dashboard starting at initial and following updates.
func NewModel(initial store.Snapshot, updates <-chan store.Snapshot, opts ...Option) Model {
	m := Model{
		updates:  updates,
		snap:     initial,
		styles:   newStyles(lipgloss.DefaultRenderer()),
		quitKeys: []string{"q", "ctrl+c", "esc"},
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.table = table.New(
		table.WithColumns(Columns()),
		table.WithRows(Rows(initial)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m.table.SetStyles(m.styles.table)

	return m
}

func waitForSnapshot(updates <-chan store.Snapshot) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = store.Snapshot(msg)
		m.table.SetRows(Rows(m.snap))
		return m, waitForSnapshot(m.updates)
	case tea.WindowSizeMsg:
		h := msg.Height - chrome
		if h < 3 {
			h = 3
		}
		m.table.SetHeight(h)
		m.table.SetWidth(msg.Width)
	case tea.KeyMsg:
		for _, k := range m.quitKeys {
			if msg.String() == k {
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	title := "Ranchers Land"
	if m.snap.Owner != "" {
		title = fmt.Sprintf("Ranchers Land · %s", m.snap.Owner)
	}
	b.WriteString(m.styles.title.Render(title))
	b.WriteString("\n")

	if len(m.snap.Entries) == 0 {
		b.WriteString("No staked NFTs to claim.\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString(m.styles.footer.Render(m.summary()))
	return b.String()
}

// Snapshot returns the state currently displayed.
func (m Model) Snapshot() store.Snapshot {
	return m.snap
}

func (m Model) summary() string {
	counts := m.snap.Count()
	parts := make([]string, 0, len(statusOrder))
	for _, st := range statusOrder {
		n := counts[st]
		if n == 0 {
			continue
		}
		parts = append(parts, m.styles.status[st].Render(fmt.Sprintf("%s %d", st, n)))
	}
	if len(parts) == 0 {
		return "q to quit"
	}
	return strings.Join(parts, "  ") + "  ·  q to quit"
}
