// Package schema validates spell definitions against the embedded JSON
// Schema before they are decoded into typed records.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed spell.embedded.schema.json
var embeddedSchemaData []byte

//go:generate go run ../tools/spell-schema-generator

// Validator validates spell definitions against the embedded JSON Schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a new schema validator, loading the embedded schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("spell.json", strings.NewReader(string(embeddedSchemaData))); err != nil {
		return nil, fmt.Errorf("failed to add embedded schema resource: %w", err)
	}

	schema, err := compiler.Compile("spell.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile embedded schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate validates an already-decoded definition (a generic map, as
// produced by yaml.Unmarshal) against the schema. The document is
// round-tripped through JSON so the validator sees plain JSON-like values.
func (v *Validator) Validate(doc interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal definition for validation: %w", err)
	}
	var plain interface{}
	if err := json.Unmarshal(jsonData, &plain); err != nil {
		return fmt.Errorf("failed to unmarshal definition for validation: %w", err)
	}

	if err := v.schema.Validate(plain); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return fmt.Errorf("spell definition is invalid:\n%s", formatValidationError(ve))
		}
		return err
	}
	return nil
}

// formatValidationError flattens the nested cause tree into one line per leaf.
func formatValidationError(ve *jsonschema.ValidationError) string {
	var lines []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			lines = append(lines, fmt.Sprintf("  - %s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(lines, "\n")
}

// EmbeddedSchema returns the raw embedded schema document.
func EmbeddedSchema() []byte {
	return embeddedSchemaData
}
