package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

var testSchema = &Schema{
	Name: "test-grade",
	Fields: []Field{
		{Name: "correct", Kind: KindBoolean},
		{Name: "explanation", Kind: KindString},
	},
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"correct":true,"explanation":"yes"}`, false},
		{"missing field", `{"correct":true}`, true},
		{"wrong type", `{"correct":"yes","explanation":"x"}`, true},
		{"extra field", `{"correct":true,"explanation":"x","score":1}`, true},
		{"not json", `correct`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(testSchema, json.RawMessage(tt.raw))
			if tt.wantErr {
				var invalid *ErrInvalidResponse
				if !errors.As(err, &invalid) {
					t.Fatalf("expected ErrInvalidResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateResponseNilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not json`)); err != nil {
		t.Fatalf("nil schema should pass, got %v", err)
	}
}

func TestSchemaJSONRequiresEveryField(t *testing.T) {
	doc := testSchema.JSON()
	required, _ := doc["required"].([]any)
	if len(required) != 2 || required[0] != "correct" || required[1] != "explanation" {
		t.Fatalf("unexpected required list %v", required)
	}
	if doc["additionalProperties"] != false {
		t.Fatalf("expected closed object, got %v", doc["additionalProperties"])
	}
	props := doc["properties"].(map[string]any)
	if props["correct"].(map[string]any)["type"] != "boolean" {
		t.Fatalf("unexpected properties %v", props)
	}
}

func TestFinishRejectsTruncatedOutput(t *testing.T) {
	_, err := finish(Request{Schema: testSchema}, completion{text: `{"correct":tr`, truncated: true})
	var truncated *ErrMaxTokensExceeded
	if !errors.As(err, &truncated) {
		t.Fatalf("expected max tokens error, got %v", err)
	}
}
