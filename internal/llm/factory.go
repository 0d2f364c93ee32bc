package llm

import (
	"context"
	"fmt"

	"adaptive-quiz-service/internal/metrics"
	"github.com/rs/zerolog"
)

// NewProvider builds the configured provider wrapped as
// caller -> retry -> observability -> SDK adapter.
// The mock provider is returned bare so tests can queue responses on it.
func NewProvider(ctx context.Context, cfg Config, logger zerolog.Logger, m *metrics.Metrics) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	observed := WithObservability(base, cfg.Provider, logger, m)
	return WithRetry(observed, cfg.Retry), nil
}
