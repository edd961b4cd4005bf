package rules

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// rulesSchema validates the structure of a client rules file before the
// engine trusts it. Kept permissive on purpose: unknown keys are allowed
// so older binaries keep working when rules files gain fields.
const rulesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["client", "version"],
  "properties": {
    "client": {"type": "string", "minLength": 1},
    "display_name": {"type": "string"},
    "version": {"type": "integer", "minimum": 1},
    "segmentation": {
      "type": "object",
      "properties": {
        "required": {"type": "boolean"},
        "segments": {"type": "array", "items": {"type": "string"}}
      }
    },
    "content_modules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "required": {"type": "boolean"},
          "keywords": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "brand": {
      "type": "object",
      "properties": {
        "required_phrases": {"type": "array", "items": {"type": "string"}},
        "banned_phrases": {"type": "array", "items": {"type": "string"}},
        "tone": {"type": "string"}
      }
    },
    "dos_and_donts": {
      "type": "object",
      "properties": {
        "dos": {"type": "array", "items": {"type": "string"}},
        "donts": {"type": "array", "items": {"type": "string"}}
      }
    },
    "compliance": {
      "type": "object",
      "properties": {
        "require_unsubscribe": {"type": "boolean"},
        "require_physical_address": {"type": "boolean"},
        "require_alt_text": {"type": "boolean"}
      }
    },
    "utm": {
      "type": "object",
      "properties": {
        "required_params": {"type": "array", "items": {"type": "string"}},
        "expected_values": {"type": "object", "additionalProperties": {"type": "string"}}
      }
    },
    "ctas": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text"],
        "properties": {
          "text": {"type": "string", "minLength": 1},
          "url_pattern": {"type": "string"},
          "required": {"type": "boolean"}
        }
      }
    },
    "phone_numbers": {"type": "array", "items": {"type": "string"}},
    "social_handles": {"type": "object", "additionalProperties": {"type": "string"}}
  }
}`

// Lint checks raw rules JSON against the schema and returns one message
// per violation.
func Lint(raw []byte) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(rulesSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validate rules: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return msgs, nil
}
