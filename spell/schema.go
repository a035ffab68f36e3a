package spell

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for spell definition files by
// reflecting the Spell type. The embedded copy in the schema package is
// refreshed from this via the spell-schema-generator tool.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Definitions may carry provider-specific extras.
		AllowAdditionalProperties: true,
		// Expand struct references instead of using $ref for a self-contained schema.
		ExpandedStruct: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	schema := r.Reflect(&Spell{})
	schema.Title = "QuickSpell Definition"
	schema.Description = "Schema for spell definition files (one spell per YAML file)."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
