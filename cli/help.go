package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const maxWidth = 72
const minWidth = 40

var (
	helpTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	helpSectionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)

	helpCommandStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("10"))

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	helpDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// getTerminalWidth returns the terminal width capped at maxWidth.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minWidth {
		return maxWidth
	}
	if width > maxWidth {
		return maxWidth
	}
	return width
}

// wrapText wraps text to the given width, preserving existing line breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = maxWidth
	}

	var result []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			result = append(result, paragraph)
			continue
		}
		var line string
		for _, word := range strings.Fields(paragraph) {
			if line == "" {
				line = word
			} else if len(line)+1+len(word) <= width {
				line += " " + word
			} else {
				result = append(result, line)
				line = word
			}
		}
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

// SetStyledHelp applies quickspell styling to a command's help output.
// Call this on the root command before Execute().
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

func styledHelpFunc(cmd *cobra.Command, args []string) {
	width := getTerminalWidth()
	var b strings.Builder

	b.WriteString(helpTitleStyle.Render(cmd.Name()))
	if cmd.Short != "" {
		b.WriteString(" - " + cmd.Short)
	}
	b.WriteString("\n\n")

	if cmd.Long != "" {
		b.WriteString(wrapText(strings.TrimSpace(cmd.Long), width))
		b.WriteString("\n\n")
	}

	b.WriteString(helpSectionStyle.Render("Usage"))
	b.WriteString("\n  " + cmd.UseLine() + "\n")
	if cmd.HasAvailableSubCommands() {
		b.WriteString("  " + cmd.CommandPath() + " [command]\n")
	}
	b.WriteString("\n")

	if cmd.HasAvailableSubCommands() {
		b.WriteString(helpSectionStyle.Render("Commands"))
		b.WriteString("\n")
		nameWidth := 0
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() && len(sub.Name()) > nameWidth {
				nameWidth = len(sub.Name())
			}
		}
		for _, sub := range cmd.Commands() {
			if !sub.IsAvailableCommand() {
				continue
			}
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				helpCommandStyle.Render(fmt.Sprintf("%-*s", nameWidth, sub.Name())),
				sub.Short))
		}
		b.WriteString("\n")
	}

	writeFlags := func(title string, flags *pflag.FlagSet) {
		if !flags.HasAvailableFlags() {
			return
		}
		b.WriteString(helpSectionStyle.Render(title))
		b.WriteString("\n")
		flags.VisitAll(func(f *pflag.Flag) {
			if f.Hidden {
				return
			}
			name := "    --" + f.Name
			if f.Shorthand != "" {
				name = "-" + f.Shorthand + ", --" + f.Name
			}
			b.WriteString(fmt.Sprintf("  %s\n", helpFlagStyle.Render(name)))
			b.WriteString(fmt.Sprintf("      %s\n", f.Usage))
		})
		b.WriteString("\n")
	}
	writeFlags("Flags", cmd.LocalFlags())
	if cmd.HasParent() {
		writeFlags("Global Flags", cmd.InheritedFlags())
	}

	if cmd.Example != "" {
		b.WriteString(helpSectionStyle.Render("Examples"))
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimSpace(cmd.Example), "\n") {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("\n")
	}

	if cmd.HasAvailableSubCommands() {
		b.WriteString(helpDimStyle.Render(
			fmt.Sprintf("Use \"%s [command] --help\" for more information about a command.", cmd.CommandPath())))
		b.WriteString("\n")
	}

	fmt.Fprint(cmd.OutOrStdout(), b.String())
}
