package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiProvider calls generateContent with a response schema built from the
// request's field list.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, cfg ProviderConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) ModelID() string { return p.model }

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	gc := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		MaxOutputTokens:   int32(req.MaxTokens),
	}
	if req.Temperature > 0 {
		gc.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.Schema != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseSchema = toGenaiSchema(req.Schema)
	}

	out, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), gc)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return nil, &ErrRateLimit{Err: err}
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}

	c := completion{text: out.Text(), model: p.model}
	if len(out.Candidates) > 0 {
		c.truncated = out.Candidates[0].FinishReason == "MAX_TOKENS"
	}
	if u := out.UsageMetadata; u != nil {
		c.usage = Usage{InputTokens: int(u.PromptTokenCount), OutputTokens: int(u.CandidatesTokenCount)}
	}
	return finish(req, c)
}

// toGenaiSchema maps a flat object schema onto Gemini's OpenAPI subset, which
// has no additionalProperties; strict decoding in the caller covers that.
func toGenaiSchema(s *Schema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Fields))
	required := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		t := genai.TypeString
		switch f.Kind {
		case KindBoolean:
			t = genai.TypeBoolean
		case KindInteger:
			t = genai.TypeInteger
		}
		props[f.Name] = &genai.Schema{Type: t, Description: f.Description}
		required = append(required, f.Name)
	}
	return &genai.Schema{
		Type:             genai.TypeObject,
		Description:      s.Description,
		Properties:       props,
		Required:         required,
		PropertyOrdering: required,
	}
}
