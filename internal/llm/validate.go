package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled validators by Schema.Name
var validators sync.Map

// validateResponse checks raw against schema and returns *ErrInvalidResponse
// on any mismatch. A nil schema always passes.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	v, err := validatorFor(schema)
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	if err := v.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("%s: %w", schema.Name, err)}
	}
	return nil
}

func validatorFor(schema *Schema) (*jsonschema.Schema, error) {
	if v, ok := validators.Load(schema.Name); ok {
		return v.(*jsonschema.Schema), nil
	}
	url := "mem://" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, schema.JSON()); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", schema.Name, err)
	}
	v, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", schema.Name, err)
	}
	validators.Store(schema.Name, v)
	return v, nil
}
