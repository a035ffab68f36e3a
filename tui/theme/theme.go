// Package theme centralizes the palette's colors and shared lipgloss styles.
package theme

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Kanagawa Dragon palette.
const (
	colorGreen      = "#98BB6C"
	colorYellow     = "#FF9E3B"
	colorRed        = "#FF5D62"
	colorBlue       = "#7FB4CA"
	colorViolet     = "#957FB8"
	colorLightText  = "#DCD7BA"
	colorMutedText  = "#727169"
	colorDarkText   = "#1D1C19"
	colorSelectedBg = "#223249"
)

// Theme bundles the styles the palette and CLI render with.
type Theme struct {
	Title    lipgloss.Style
	Section  lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
}

// DefaultTheme is the theme used unless NO_COLOR strips styling.
var DefaultTheme = newTheme()

func newTheme() *Theme {
	if os.Getenv("NO_COLOR") != "" {
		plain := lipgloss.NewStyle()
		return &Theme{
			Title: plain, Section: plain, Selected: plain,
			Muted: plain, Accent: plain, Warning: plain, Error: plain,
		}
	}
	return &Theme{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorBlue)).
			Bold(true),
		Section: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorViolet)).
			Bold(true),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorLightText)).
			Background(lipgloss.Color(colorSelectedBg)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMutedText)),
		Accent: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGreen)),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorYellow)),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorRed)),
	}
}
