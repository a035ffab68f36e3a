package palette

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quickspell/core/session"
)

// Update handles messages and drives the session.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = session.Snapshot(msg)
		// Frame changes reset the visible query, e.g. after push or pop.
		if m.input.Value() != m.snap.Query {
			m.input.SetValue(m.snap.Query)
			m.input.CursorEnd()
		}
		return m, m.waitForSnapshot()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			m.sess.SetSelectionDelta(-1)
			return m, nil

		case key.Matches(msg, m.keys.Down):
			m.sess.SetSelectionDelta(1)
			return m, nil

		case key.Matches(msg, m.keys.Accept):
			// Dispatch errors come back through the snapshot stream.
			_ = m.sess.InvokeAction(context.Background(), "")
			return m, nil

		case key.Matches(msg, m.keys.Back):
			if len(m.snap.SpellNames) <= 1 {
				m.quitting = true
				return m, tea.Quit
			}
			m.sess.HandleEscape()
			return m, nil

		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			if m.input.Value() != m.snap.Query {
				m.sess.SetQuery(m.input.Value())
			}
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
