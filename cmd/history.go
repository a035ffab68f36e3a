package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quickspell/core/cli"
	"github.com/quickspell/core/history"
)

// NewHistoryCmd creates the `history` command.
func NewHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show action usage history",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}

			entries := store.Entries()
			if opts.JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(entries)
			}

			if len(entries) == 0 {
				fmt.Println("No history recorded yet")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%5d  %s %s  (last used %s)\n",
					e.Count, e.SpellID, e.Label, e.LastUsed.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
