package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSON Schemas mirroring the declared response schemas. Output that does
// not match is treated as a failed generation.
const dropsJSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "name":   {"type": "string", "minLength": 1},
      "age":    {"type": "number", "minimum": 0},
      "gender": {"enum": ["Male", "Female", "Trans"]},
      "bio":    {"type": "string"},
      "note":   {"type": "string"}
    },
    "required": ["name", "age", "gender", "bio", "note"]
  }
}`

const loreJSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "summary":     {"type": "string"},
    "vibe":        {"type": "string"},
    "status":      {"type": "string"},
    "dangerLevel": {"enum": ["EXTREME", "HIGH", "MEDIUM", "LOW"]}
  },
  "required": ["summary", "vibe", "status", "dangerLevel"]
}`

var (
	dropsSchema = jsonschema.MustCompileString("dtp://schemas/drops.json", dropsJSONSchema)
	loreSchema  = jsonschema.MustCompileString("dtp://schemas/lore.json", loreJSONSchema)
)

// decodeStructured validates text against schema and decodes it into out
func decodeStructured(text string, schema *jsonschema.Schema, out any) error {
	text = stripFence(text)
	if text == "" {
		return fmt.Errorf("empty response")
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return fmt.Errorf("malformed json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// stripFence removes a markdown code fence some models wrap JSON in
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
