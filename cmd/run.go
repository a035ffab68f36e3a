// Package cmd contains the quickspell subcommands.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/quickspell/core/cli"
	"github.com/quickspell/core/command"
	"github.com/quickspell/core/config"
	"github.com/quickspell/core/history"
	"github.com/quickspell/core/logging"
	"github.com/quickspell/core/provider"
	"github.com/quickspell/core/session"
	"github.com/quickspell/core/spell"
	"github.com/quickspell/core/tui"
	"github.com/quickspell/core/tui/palette"
)

// NewRunCmd creates the `run` command: the interactive palette in the
// current terminal.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the interactive palette",
		Long: `Loads the spell registry, runs the main-category providers, and opens
the palette in the current terminal. Escape on the root frame exits.`,
		Example: `  # Open the palette
  quickspell run

  # Open with a different root spell
  quickspell run --root search_files`,
		RunE: runPaletteE,
	}

	cmd.Flags().String("root", "", "Root spell id (overrides config)")
	return cmd
}

func runPaletteE(cmd *cobra.Command, args []string) error {
	handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return handler.Handle(err)
	}
	logging.Configure(cfg.Logging)

	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.RootSpell = root
	}

	sess, err := buildSession(cfg)
	if err != nil {
		return handler.Handle(err)
	}

	tui.InitializeTUI()
	if err := palette.Run(context.Background(), sess); err != nil {
		return handler.Handle(err)
	}
	return nil
}

// buildSession wires the registry, provider runner, launcher, and history
// store into a session from one config.
func buildSession(cfg *config.Config) (*session.Session, error) {
	reg, err := spell.LoadDir(cfg.SpellsDir)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger("cmd")
	for _, le := range reg.Errors() {
		logger.WithField("file", le.Path).WithError(le.Err).Warn("Skipping invalid spell")
	}

	opts := session.Options{
		Registry:    reg,
		Runner:      provider.NewRunner(nil, cfg.ResourcesDir),
		Launcher:    command.NewLauncher(nil, cfg.ResourcesDir),
		RootSpellID: cfg.RootSpell,
		TopN:        cfg.TopN,
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.WithError(err).Warn("History disabled: could not open store")
		} else {
			opts.History = store
		}
	}
	return session.New(opts), nil
}
