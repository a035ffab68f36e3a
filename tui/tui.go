package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI prepares the terminal environment before starting a TUI.
// When `CLICOLOR_FORCE` or `COLORTERM` force color output, the lipgloss
// color profile is raised accordingly so styling survives non-interactive
// and CI environments. In a normal terminal it has no effect.
func InitializeTUI() {
	if os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor" {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
