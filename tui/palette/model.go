// Package palette is the interactive terminal front end for the session. It
// renders snapshots and translates key presses into session operations; all
// palette logic lives in the session itself.
package palette

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quickspell/core/session"
)

// snapshotMsg carries one session snapshot into the update loop.
type snapshotMsg session.Snapshot

// Model is the bubbletea model for the palette.
type Model struct {
	sess *session.Session
	sub  chan session.Snapshot

	input textinput.Model
	keys  KeyMap
	snap  session.Snapshot

	width  int
	height int

	quitting bool
}

// New builds a palette model attached to a started session.
func New(sess *session.Session) Model {
	input := textinput.New()
	input.Placeholder = "Type to filter..."
	input.Prompt = "> "
	input.Focus()

	return Model{
		sess:  sess,
		sub:   sess.Subscribe(),
		input: input,
		keys:  DefaultKeyMap(),
		snap:  sess.Snapshot(),
	}
}

// Init starts the snapshot pump and the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForSnapshot(), textinput.Blink)
}

// waitForSnapshot blocks on the subscription and feeds the next snapshot to
// Update. A closed channel ends the pump.
func (m Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-m.sub
		if !ok {
			return tea.Quit()
		}
		return snapshotMsg(snap)
	}
}

// Run starts the session, attaches the palette, and blocks until exit.
func Run(ctx context.Context, sess *session.Session) error {
	if err := sess.Start(ctx); err != nil {
		return err
	}
	m := New(sess)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	sess.Unsubscribe(m.sub)
	return err
}
