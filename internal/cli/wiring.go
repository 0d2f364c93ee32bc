package cli

import (
	"context"
	"fmt"
	"time"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/config"
	"adaptive-quiz-service/internal/infra/memory"
	pgstore "adaptive-quiz-service/internal/infra/postgres"
	redisstore "adaptive-quiz-service/internal/infra/redis"
	"adaptive-quiz-service/internal/llm"
	"adaptive-quiz-service/internal/metrics"
	"adaptive-quiz-service/internal/oracle"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// engine holds the wired service and the connections it owns.
type engine struct {
	service *app.SessionService
	closers []func()
}

func (e *engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// buildEngine wires stores, oracles and the service from cfg. Redis backs the
// stores when an address is configured, otherwise everything lives in memory.
// A Postgres URL moves answer history to the durable archive.
func buildEngine(ctx context.Context, cfg config.Config, logger zerolog.Logger, m *metrics.Metrics) (*engine, error) {
	e := &engine{}

	var stores app.Stores
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		e.closers = append(e.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			e.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		ledger := redisstore.NewLedger(client)
		stores = app.Stores{
			Sessions:   redisstore.NewSessionStore(client, config.TTLDuration(cfg.Redis.SessionTTL, 24*time.Hour)),
			Exclusions: redisstore.NewExclusionStore(client),
			Ledger:     ledger,
			Users:      ledger,
			History:    redisstore.NewHistoryStore(client),
			Topics:     redisstore.NewTopicStore(client),
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("using redis stores")
	} else {
		ledger := memory.NewLedger()
		stores = app.Stores{
			Sessions:   memory.NewSessionStore(),
			Exclusions: memory.NewExclusionStore(),
			Ledger:     ledger,
			Users:      ledger,
			History:    memory.NewHistoryStore(),
			Topics:     memory.NewTopicStore(),
		}
		logger.Warn().Msg("redis not configured, using in-memory stores")
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		e.closers = append(e.closers, pool.Close)
		stores.History = pgstore.NewHistoryStore(pool)
		logger.Info().Msg("using postgres answer history")
	}

	provider, err := llm.NewProvider(ctx, llmConfig(cfg), logger, m)
	if err != nil {
		e.Close()
		return nil, err
	}
	if cfg.LLM.Provider == "mock" {
		logger.Warn().Msg("llm provider is mock; oracle calls will fail until responses are queued")
	}

	ocfg := oracle.DefaultConfig()
	ocfg.AvoidLimit = cfg.Engine.AvoidPromptLimit
	ocfg.Timeout = config.TTLDuration(cfg.LLM.Timeout, ocfg.Timeout)
	o := oracle.New(provider, ocfg)

	oracles := app.Oracles{Questions: o, Grader: o, Summary: o}
	if cfg.Moderation.Enabled {
		oracles.Moderator = o
	}

	e.service = app.NewSessionService(stores, oracles, app.Options{
		MaxQuestionLength: cfg.Engine.MaxQuestionLength,
		AvoidPromptLimit:  cfg.Engine.AvoidPromptLimit,
		DedupFallback:     cfg.Engine.DedupFallback,
		HistoryCap:        cfg.Engine.HistoryCap,
		LeaderboardLimit:  cfg.Engine.LeaderboardLimit,
		Blocklist:         cfg.Moderation.Blocklist,
	}, m, logger)
	return e, nil
}

func llmConfig(cfg config.Config) llm.Config {
	out := llm.DefaultConfig()
	out.Provider = cfg.LLM.Provider
	out.OpenAI = llm.ProviderConfig(cfg.LLM.OpenAI)
	out.Anthropic = llm.ProviderConfig(cfg.LLM.Anthropic)
	out.Gemini = llm.ProviderConfig(cfg.LLM.Gemini)
	out.Timeout = config.TTLDuration(cfg.LLM.Timeout, out.Timeout)
	if cfg.LLM.Retry.MaxAttempts > 0 {
		out.Retry.MaxAttempts = cfg.LLM.Retry.MaxAttempts
	}
	if cfg.LLM.Retry.Multiplier > 0 {
		out.Retry.Multiplier = cfg.LLM.Retry.Multiplier
	}
	out.Retry.InitialWait = config.TTLDuration(cfg.LLM.Retry.InitialWait, out.Retry.InitialWait)
	out.Retry.MaxWait = config.TTLDuration(cfg.LLM.Retry.MaxWait, out.Retry.MaxWait)
	return out
}
