package ssh

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish/bubbletea"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/dashboard"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
)

type page int

const (
	assetsPage page = iota
	logsPage
)

// model is one ssh session: the asset dashboard plus a log tail, switched with tab.
type model struct {
	active page
	assets dashboard.Model
	logs   logView
	help   lipgloss.Style
}

func newModel(assets dashboard.Model, logFileName string, r *lipgloss.Renderer) model {
	return model{
		active: assetsPage,
		assets: assets,
		logs:   newLogView(logFileName),
		help:   r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.assets.Init(), m.logs.init())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q", "esc":
			m.logs.close()
			return m, tea.Quit
		case "tab":
			if m.active == assetsPage {
				m.active = logsPage
			} else {
				m.active = assetsPage
			}
			return m, nil
		}

		var cmd tea.Cmd
		if m.active == logsPage {
			m.logs, cmd = m.logs.update(msg)
		} else {
			var next tea.Model
			next, cmd = m.assets.Update(msg)
			m.assets = next.(dashboard.Model)
		}
		return m, cmd
	}

	next, assetsCmd := m.assets.Update(msg)
	m.assets = next.(dashboard.Model)

	var logsCmd tea.Cmd
	m.logs, logsCmd = m.logs.update(msg)

	return m, tea.Batch(assetsCmd, logsCmd)
}

func (m model) View() string {
	body := m.assets.View()
	if m.active == logsPage {
		body = m.logs.view()
	}
	return body + "\n" + m.help.Render("tab switch view · q quit")
}

// MakeTeaHandler serves the asset dashboard to every ssh session. Each session
// follows the store until it disconnects.
func MakeTeaHandler(s *store.Store, logFileName string) bubbletea.Handler {
	return func(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
		log.Info().Str("user", sess.User()).Str("addr", sess.RemoteAddr().String()).Msg("New ssh connection request")

		updates, cancel := s.Subscribe()
		go func() {
			<-sess.Context().Done()
			cancel()
		}()

		r := bubbletea.MakeRenderer(sess)
		assets := dashboard.NewModel(s.Snapshot(), updates,
			dashboard.WithRenderer(r),
			dashboard.WithQuitKeys(),
		)

		return newModel(assets, logFileName, r), []tea.ProgramOption{tea.WithAltScreen()}
	}
}
