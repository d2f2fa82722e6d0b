package dashboard

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
)

// Run shows the dashboard on the current terminal until the user quits or ctx ends.
func Run(ctx context.Context, s *store.Store, opts ...tea.ProgramOption) error {
	updates, cancel := s.Subscribe()
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(NewModel(s.Snapshot(), updates), opts...)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// LogTransitions writes a log line every time an asset changes status. It is the
// console output used when stdout is not a terminal.
func LogTransitions(ctx context.Context, s *store.Store) {
	updates, cancel := s.Subscribe()
	defer cancel()

	seen := make(map[uint64]store.Status)
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-updates:
			for _, e := range transitions(seen, snap) {
				log.Info().
					Uint64("asset_id", e.ID).
					Str("name", e.Name).
					Str("remaining", e.Remaining()).
					Stringer("status", e.Status).
					Msg("Asset status changed")
			}
		}
	}
}

// transitions returns the entries whose status differs from seen and updates seen to
// match snap. Assets no longer present are forgotten.
func transitions(seen map[uint64]store.Status, snap store.Snapshot) []store.Entry {
	changed := make([]store.Entry, 0)
	present := make(map[uint64]struct{}, len(snap.Entries))

	for _, e := range snap.Entries {
		present[e.ID] = struct{}{}
		if old, ok := seen[e.ID]; ok && old == e.Status {
			continue
		}
		seen[e.ID] = e.Status
		changed = append(changed, e)
	}

	for id := range seen {
		if _, ok := present[id]; !ok {
			delete(seen, id)
		}
	}
	return changed
}
