package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quickspell/core/schema"
)

// NewSchemaCmd creates the `schema` command, printing the JSON schema spell
// files are validated against. Useful for editor integration.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the spell definition JSON schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(string(schema.EmbeddedSchema()))
			return nil
		},
	}
}
