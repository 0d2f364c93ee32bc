package llm

// Kind is the JSON type of a schema field.
type Kind string

const (
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindInteger Kind = "integer"
)

// Field is one required property of a response object.
type Field struct {
	Name        string
	Kind        Kind
	Description string
}

// Schema describes a flat JSON object whose fields are all required and no
// other keys are allowed. Name is sent to providers and keys the compiled
// validator.
type Schema struct {
	Name        string
	Description string
	Fields      []Field
}

// JSON renders s as a JSON Schema document.
func (s *Schema) JSON() map[string]any {
	props := make(map[string]any, len(s.Fields))
	required := make([]any, 0, len(s.Fields))
	for _, f := range s.Fields {
		prop := map[string]any{"type": string(f.Kind)}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		props[f.Name] = prop
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}
