package llm

import (
	"slices"
	"strings"
)

// Schema is the subset of JSON Schema understood by every text backend.
// Types are lowercase JSON Schema names ("object", "array", "string").
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// wrapKey holds a non-object root for backends that only accept object roots.
const wrapKey = "items"

// geminiSchema converts to the OpenAPI flavour used by generateContent,
// which spells types in upper case.
func geminiSchema(s *Schema) map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": strings.ToUpper(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Items != nil {
		out["items"] = geminiSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = geminiSchema(p)
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

// strictSchema converts to the strict json_schema dialect: every object
// closes additionalProperties and lists all of its properties as required.
func strictSchema(s *Schema) map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": s.Type}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Items != nil {
		out["items"] = strictSchema(s.Items)
	}
	if s.Type == "object" {
		props := make(map[string]any, len(s.Properties))
		required := make([]string, 0, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = strictSchema(p)
			required = append(required, name)
		}
		slices.Sort(required)
		out["properties"] = props
		out["required"] = required
		out["additionalProperties"] = false
	}
	return out
}

// wrapRoot returns an object schema holding s under wrapKey when s is not
// already an object.
func wrapRoot(s *Schema) (*Schema, bool) {
	if s == nil || s.Type == "object" {
		return s, false
	}
	return &Schema{
		Type:       "object",
		Properties: map[string]*Schema{wrapKey: s},
		Required:   []string{wrapKey},
	}, true
}
