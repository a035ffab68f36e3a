package cli

import (
	"fmt"
	"os"

	"github.com/quickspell/core/errors"
)

// ErrorHandler renders palette errors for humans.
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{Verbose: verbose}
}

// Handle prints a friendly message for known error codes and returns the
// error unchanged so callers can still exit non-zero.
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeSpellsNotFound:
		if serr, ok := err.(*errors.SpellError); ok {
			fmt.Fprintf(os.Stderr, "❌ Spells directory not found: %v\n", serr.Details["path"])
		} else {
			fmt.Fprintf(os.Stderr, "❌ Spells directory not found\n")
		}
		fmt.Fprintf(os.Stderr, "Create it and add spell definitions, or set spells_dir in quickspell.yml.\n")
		return err

	case errors.ErrCodeSpellNotFound:
		if serr, ok := err.(*errors.SpellError); ok {
			fmt.Fprintf(os.Stderr, "❌ Spell '%v' not found\n", serr.Details["spell"])
		}
		fmt.Fprintf(os.Stderr, "Run 'quickspell spells' to see available spells.\n")
		return err

	case errors.ErrCodeSpellInvalid:
		fmt.Fprintf(os.Stderr, "❌ Invalid spell definition: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'quickspell spells validate' for details.\n")
		return err

	case errors.ErrCodeProcessLaunch:
		if serr, ok := err.(*errors.SpellError); ok {
			fmt.Fprintf(os.Stderr, "❌ Failed to launch '%v'\n", serr.Details["command"])
		} else {
			fmt.Fprintf(os.Stderr, "❌ Failed to launch command\n")
		}
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		if h.Verbose {
			if serr, ok := err.(*errors.SpellError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", serr.ToJSON())
			}
		}
		return err
	}
}
