package palette

import (
	"fmt"
	"strings"

	"github.com/quickspell/core/session"
	"github.com/quickspell/core/tui/theme"
)

// View renders the current snapshot.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	t := theme.DefaultTheme
	var b strings.Builder

	b.WriteString(t.Title.Render(m.snap.Breadcrumb()))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch m.snap.Status {
	case session.StatusLoading:
		b.WriteString(t.Warning.Render("Loading..."))
		b.WriteString("\n")
	case session.StatusError:
		b.WriteString(t.Error.Render(m.snap.Err))
		b.WriteString("\n")
	default:
		m.renderItems(t, &b)
	}

	if m.snap.Err != "" && m.snap.Status != session.StatusError {
		b.WriteString("\n")
		b.WriteString(t.Error.Render(m.snap.Err))
		b.WriteString("\n")
	}

	if len(m.snap.Actions) > 0 {
		b.WriteString("\n")
		b.WriteString(t.Muted.Render("actions: " + strings.Join(m.snap.Actions, ", ")))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderItems(t *theme.Theme, b *strings.Builder) {
	if len(m.snap.Items) == 0 {
		b.WriteString(t.Muted.Render("No matches"))
		b.WriteString("\n")
		return
	}

	for i, item := range m.snap.Items {
		line := fmt.Sprintf("%s %s", t.Muted.Render(item.Kind), item.Display)
		if i == m.snap.SelectedIndex {
			line = t.Selected.Render("▌ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.snap.TotalItems > len(m.snap.Items) {
		b.WriteString(t.Muted.Render(fmt.Sprintf("  … %d more", m.snap.TotalItems-len(m.snap.Items))))
		b.WriteString("\n")
	}
}
