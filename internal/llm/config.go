package llm

import (
	"fmt"
	"time"
)

// Config selects and configures a provider.
type Config struct {
	// Provider is one of "openai", "anthropic", "gemini" or "mock".
	Provider  string
	OpenAI    ProviderConfig
	Anthropic ProviderConfig
	Gemini    ProviderConfig
	Retry     RetryConfig
	// Timeout bounds a single oracle call including retries.
	Timeout time.Duration
}

// ProviderConfig holds per-SDK credentials. Model is the provider's model id.
// BaseURL overrides the API endpoint where the SDK supports it.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

func DefaultConfig() Config {
	return Config{
		Provider:  "mock",
		OpenAI:    ProviderConfig{Model: "gpt-4o-mini"},
		Anthropic: ProviderConfig{Model: "claude-haiku-4-5"},
		Gemini:    ProviderConfig{Model: "gemini-2.0-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown llm provider: %q", c.Provider)
	}
	return nil
}
