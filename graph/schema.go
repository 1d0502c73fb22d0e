package graph

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/alertflow/errors"
)

// definitionSchema is the JSON Schema every rule definition must satisfy
// before decoding. Structural checks beyond what the schema can express
// (id uniqueness, reference resolution) happen in Compile.
const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "name", "enabled", "start_node", "nodes"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "description": {"type": "string"},
    "enabled": {"type": "boolean"},
    "interval": {"type": "integer", "minimum": 0},
    "start_node": {"type": "string", "minLength": 1},
    "nodes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "type"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"type": "string"},
          "properties": {"type": "object"},
          "next": {"type": "array", "items": {"type": "string"}},
          "next_true": {"type": "array", "items": {"type": "string"}},
          "next_false": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(definitionSchema)

// validateSchema validates raw definition JSON against the definition schema
func validateSchema(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrMalformedDefinition, err),
			"GraphLoader", "validateSchema", "schema validation")
	}

	if !result.Valid() {
		var sb strings.Builder
		for i, desc := range result.Errors() {
			if i > 0 {
				sb.WriteString("; ")
			}
			fmt.Fprintf(&sb, "%s: %s", desc.Field(), desc.Description())
		}
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrMalformedDefinition, sb.String()),
			"GraphLoader", "validateSchema", "schema validation")
	}

	return nil
}
