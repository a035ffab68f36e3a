package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Registry errors
	ErrCodeSpellsNotFound ErrorCode = "SPELLS_NOT_FOUND"
	ErrCodeSpellInvalid   ErrorCode = "SPELL_INVALID"
	ErrCodeSpellNotFound  ErrorCode = "SPELL_NOT_FOUND"

	// Provider errors
	ErrCodeProviderFailed ErrorCode = "PROVIDER_FAILED"

	// Action errors
	ErrCodeActionNotFound  ErrorCode = "ACTION_NOT_FOUND"
	ErrCodeNothingSelected ErrorCode = "NOTHING_SELECTED"
	ErrCodeProcessLaunch   ErrorCode = "PROCESS_LAUNCH"
	ErrCodeTemplateRender  ErrorCode = "TEMPLATE_RENDER"

	// Session errors
	ErrCodeSessionState ErrorCode = "SESSION_STATE"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// SpellError represents a structured error with context
type SpellError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *SpellError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SpellError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *SpellError) WithDetail(key string, value interface{}) *SpellError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *SpellError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new SpellError
func New(code ErrorCode, message string) *SpellError {
	return &SpellError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a SpellError
func Wrap(err error, code ErrorCode, message string) *SpellError {
	return &SpellError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error carries a specific error code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	spellErr, ok := err.(*SpellError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return spellErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	spellErr, ok := err.(*SpellError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ErrCodeInternal
	}

	return spellErr.Code
}
