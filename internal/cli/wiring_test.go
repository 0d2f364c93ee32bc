package cli

import (
	"context"
	"testing"
	"time"

	"adaptive-quiz-service/internal/config"
	"adaptive-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

func TestLLMConfigMapping(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.Anthropic.APIKey = "key"
	cfg.LLM.Retry.InitialWait = "250ms"
	cfg.LLM.Retry.MaxAttempts = 5

	out := llmConfig(cfg)
	if out.Provider != "anthropic" || out.Anthropic.APIKey != "key" || out.Anthropic.Model != "claude-haiku-4-5" {
		t.Fatalf("unexpected provider config %+v", out)
	}
	if out.Retry.InitialWait != 250*time.Millisecond || out.Retry.MaxAttempts != 5 || out.Retry.MaxWait != 10*time.Second {
		t.Fatalf("unexpected retry config %+v", out.Retry)
	}
}

func TestBuildEngineInMemory(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Moderation.Enabled = false

	eng, err := buildEngine(ctx, cfg, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer eng.Close()

	if _, err := eng.service.Register(ctx, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := eng.service.StartSession(ctx, "alice", "", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// The default mock provider has nothing queued.
	if _, err := eng.service.NextQuestion(ctx, session.ID); !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error from empty mock, got %v", err)
	}
}

func TestBuildEngineRedis(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	cfg := config.Default()
	cfg.Redis.Addr = mr.Addr()
	cfg.Moderation.Enabled = false
	eng, err := buildEngine(ctx, cfg, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer eng.Close()

	if _, err := eng.service.Register(ctx, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !mr.Exists("user:alice") {
		t.Fatalf("expected user in redis, have %v", mr.Keys())
	}
	if err := eng.service.Wipe(ctx); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	if mr.Exists("user:alice") {
		t.Fatalf("expected wiped user")
	}
}

func TestWipeRequiresConfirmation(t *testing.T) {
	path := ""
	cmd := NewWipeCmd(&path)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected wipe without --yes to fail")
	}
}
