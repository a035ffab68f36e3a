package errors

import (
	"fmt"
)

// SpellsNotFound creates a spells-directory-not-found error
func SpellsNotFound(path string) *SpellError {
	return New(ErrCodeSpellsNotFound, fmt.Sprintf("spells directory not found: %s", path)).
		WithDetail("path", path)
}

// SpellInvalid creates an invalid spell definition error
func SpellInvalid(path string, reason string) *SpellError {
	return New(ErrCodeSpellInvalid, fmt.Sprintf("invalid spell definition %s: %s", path, reason)).
		WithDetail("path", path)
}

// SpellNotFound creates a spell lookup error
func SpellNotFound(id string) *SpellError {
	return New(ErrCodeSpellNotFound, fmt.Sprintf("spell '%s' not found", id)).
		WithDetail("spell", id)
}

// ProviderFailed creates a provider execution failure error
func ProviderFailed(spellID string, err error) *SpellError {
	return Wrap(err, ErrCodeProviderFailed, fmt.Sprintf("provider for spell '%s' failed", spellID)).
		WithDetail("spell", spellID)
}

// ActionNotFound creates an unknown action label error
func ActionNotFound(label string, spellID string) *SpellError {
	return New(ErrCodeActionNotFound, fmt.Sprintf("no action labeled '%s' on spell '%s'", label, spellID)).
		WithDetail("label", label).
		WithDetail("spell", spellID)
}

// NothingSelected creates a benign no-selection report
func NothingSelected() *SpellError {
	return New(ErrCodeNothingSelected, "nothing selected")
}

// ProcessLaunch creates a command launch failure error
func ProcessLaunch(command string, err error) *SpellError {
	return Wrap(err, ErrCodeProcessLaunch, fmt.Sprintf("failed to launch command: %s", command)).
		WithDetail("command", command)
}

// TemplateRender creates a template rendering failure error
func TemplateRender(template string, err error) *SpellError {
	return Wrap(err, ErrCodeTemplateRender, "failed to render action template").
		WithDetail("template", template)
}

// SessionState creates an invalid session state transition error
func SessionState(reason string) *SpellError {
	return New(ErrCodeSessionState, reason)
}
