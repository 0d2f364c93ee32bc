package llm

import (
	"context"
	"encoding/json"
)

// Provider sends one oracle prompt to a language model and returns its JSON
// output, validated against the request schema.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single-turn call: a system instruction, one user prompt and
// the object shape the answer must take.
type Request struct {
	System      string
	Prompt      string
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Response holds validated model output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// completion is what an SDK adapter extracts from its provider's reply before
// the shared checks run.
type completion struct {
	text      string
	truncated bool
	usage     Usage
	model     string
}

// finish turns an adapter's completion into a Response. Truncated output is
// reported as ErrMaxTokensExceeded and never validated.
func finish(req Request, c completion) (*Response, error) {
	content := json.RawMessage(c.text)
	if c.truncated {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	return &Response{Content: content, Usage: c.usage, Model: c.model}, nil
}
