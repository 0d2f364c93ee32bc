package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     Server     `yaml:"server"`
	Redis      Redis      `yaml:"redis"`
	Postgres   Postgres   `yaml:"postgres"`
	Engine     Engine     `yaml:"engine"`
	LLM        LLM        `yaml:"llm"`
	Moderation Moderation `yaml:"moderation"`
	Log        Log        `yaml:"log"`
}

type Server struct {
	Port         string `yaml:"port" env:"PORT"`
	ReadTimeout  string `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
}

type Redis struct {
	Addr       string `yaml:"addr" env:"REDIS_ADDR"`
	Password   string `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" env:"REDIS_DB"`
	SessionTTL string `yaml:"session_ttl" env:"REDIS_SESSION_TTL"`
}

type Postgres struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

// Engine tunes the session engine.
type Engine struct {
	MaxQuestionLength int    `yaml:"max_question_length" env:"ENGINE_MAX_QUESTION_LENGTH"`
	AvoidPromptLimit  int    `yaml:"avoid_prompt_limit" env:"ENGINE_AVOID_PROMPT_LIMIT"`
	DedupFallback     string `yaml:"dedup_fallback" env:"ENGINE_DEDUP_FALLBACK"`
	HistoryCap        int    `yaml:"history_cap" env:"ENGINE_HISTORY_CAP"`
	LeaderboardLimit  int    `yaml:"leaderboard_limit" env:"ENGINE_LEADERBOARD_LIMIT"`
}

type LLM struct {
	Provider  string      `yaml:"provider" env:"LLM_PROVIDER"`
	Timeout   string      `yaml:"timeout" env:"LLM_TIMEOUT"`
	OpenAI    LLMProvider `yaml:"openai" envPrefix:"OPENAI_"`
	Anthropic LLMProvider `yaml:"anthropic" envPrefix:"ANTHROPIC_"`
	Gemini    LLMProvider `yaml:"gemini" envPrefix:"GEMINI_"`
	Retry     Retry       `yaml:"retry"`
}

type LLMProvider struct {
	APIKey  string `yaml:"api_key" env:"API_KEY"`
	Model   string `yaml:"model" env:"MODEL"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
}

type Retry struct {
	MaxAttempts int     `yaml:"max_attempts" env:"LLM_RETRY_MAX_ATTEMPTS"`
	InitialWait string  `yaml:"initial_wait" env:"LLM_RETRY_INITIAL_WAIT"`
	MaxWait     string  `yaml:"max_wait" env:"LLM_RETRY_MAX_WAIT"`
	Multiplier  float64 `yaml:"multiplier" env:"LLM_RETRY_MULTIPLIER"`
}

type Moderation struct {
	Enabled   bool     `yaml:"enabled" env:"MODERATION_ENABLED"`
	Blocklist []string `yaml:"blocklist" env:"MODERATION_BLOCKLIST" envSeparator:","`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	Env    string `yaml:"env" env:"APP_ENV"`
}

// Default returns the configuration used when a value is absent from both
// the YAML file and the environment.
func Default() Config {
	return Config{
		Server: Server{Port: "8080", ReadTimeout: "15s", WriteTimeout: "60s"},
		Redis:  Redis{SessionTTL: "24h"},
		Engine: Engine{
			MaxQuestionLength: 1000,
			AvoidPromptLimit:  200,
			DedupFallback:     "prefix",
			HistoryCap:        1000,
			LeaderboardLimit:  100,
		},
		LLM: LLM{
			Provider:  "mock",
			Timeout:   "30s",
			OpenAI:    LLMProvider{Model: "gpt-4o-mini"},
			Anthropic: LLMProvider{Model: "claude-haiku-4-5"},
			Gemini:    LLMProvider{Model: "gemini-2.0-flash"},
			Retry:     Retry{MaxAttempts: 3, InitialWait: "1s", MaxWait: "10s", Multiplier: 2},
		},
		Moderation: Moderation{Enabled: true},
		Log:        Log{Level: "info", Format: "console", Env: "development"},
	}
}

// Load reads YAML config from path and overlays environment variables. A
// missing file is not an error; defaults and the environment still apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment when present.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func (c Config) Validate() error {
	switch c.Engine.DedupFallback {
	case "prefix", "fail":
	default:
		return fmt.Errorf("engine.dedup_fallback must be prefix or fail, got %q", c.Engine.DedupFallback)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic", "gemini", "mock":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Engine.MaxQuestionLength <= 0 {
		return fmt.Errorf("engine.max_question_length must be positive")
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
