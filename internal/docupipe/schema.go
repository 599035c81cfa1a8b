package docupipe

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ResultEnvelopeSchema is the shape every standardized result must satisfy
// before inspection: a JSON object whose known sections, when present, have
// the expected types. Extraction schemas evolve provider-side, so unknown
// properties are allowed.
func ResultEnvelopeSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties": map[string]any{
			"metadata":     map[string]any{"type": "object"},
			"metrics":      map[string]any{"type": "object"},
			"transactions": map[string]any{"type": "array"},
			"narrative":    map[string]any{"type": "string"},
		},
	}
}

// ValidateResult validates a standardized payload against the envelope
// schema.
func ValidateResult(data []byte) error {
	return validateAgainstSchema(ResultEnvelopeSchema(), data)
}

func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
