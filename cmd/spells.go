package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/quickspell/core/cli"
	"github.com/quickspell/core/history"
	"github.com/quickspell/core/spell"
)

var (
	spellNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	spellDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	spellErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// NewSpellsCmd creates the `spells` command.
func NewSpellsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spells",
		Short: "List the loaded spell definitions",
		Example: `  # List spells
  quickspell spells

  # Include usage counts from the invocation history
  quickspell spells --usage

  # Check spell files for problems
  quickspell spells validate`,
		RunE: runSpellsE,
	}

	cmd.Flags().Bool("usage", false, "Show invocation counts per spell")
	cmd.AddCommand(newSpellsValidateCmd())
	return cmd
}

// usageCounts sums recorded invocations per spell id. Returns nil when the
// history file is absent or unreadable.
func usageCounts(path string) map[string]int {
	store, err := history.Open(path)
	if err != nil {
		return nil
	}
	counts := make(map[string]int)
	for _, e := range store.Entries() {
		counts[e.SpellID] += e.Count
	}
	return counts
}

func runSpellsE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return handler.Handle(err)
	}
	reg, err := spell.LoadDir(cfg.SpellsDir)
	if err != nil {
		return handler.Handle(err)
	}

	var counts map[string]int
	if showUsage, _ := cmd.Flags().GetBool("usage"); showUsage {
		counts = usageCounts(cfg.History.Path)
	}

	if opts.JSONOutput {
		return json.NewEncoder(os.Stdout).Encode(reg.ListEnabled())
	}

	for _, sp := range reg.ListEnabled() {
		line := fmt.Sprintf("%s %s", spellNameStyle.Render(sp.Name), spellDimStyle.Render("("+sp.ID+")"))
		if sp.Category != "" {
			line += spellDimStyle.Render(" [" + sp.Category + "]")
		}
		if sp.Alias != "" {
			line += spellDimStyle.Render(" alias=" + sp.Alias)
		}
		if counts != nil {
			line += spellDimStyle.Render(fmt.Sprintf(" used %d×", counts[sp.ID]))
		}
		fmt.Println(line)
		for _, a := range sp.Actions {
			fmt.Printf("  %s\n", spellDimStyle.Render(a.Label))
		}
	}

	if errs := reg.Errors(); len(errs) > 0 {
		fmt.Println()
		fmt.Println(spellErrStyle.Render(fmt.Sprintf("%d file(s) failed to load; run 'quickspell spells validate'", len(errs))))
	}
	return nil
}

func newSpellsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every spell file and report problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return handler.Handle(err)
			}
			reg, err := spell.LoadDir(cfg.SpellsDir)
			if err != nil {
				return handler.Handle(err)
			}

			errs := reg.Errors()
			if len(errs) == 0 {
				fmt.Printf("✓ %d spell(s) loaded, no problems found\n", reg.Len())
				return nil
			}

			for _, le := range errs {
				fmt.Println(spellErrStyle.Render("✗ " + le.Path))
				fmt.Printf("  %v\n", le.Err)
			}
			return fmt.Errorf("%d spell file(s) failed validation", len(errs))
		},
	}
}
