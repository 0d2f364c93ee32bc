package http

import (
	"testing"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/infra/memory"
	"adaptive-quiz-service/internal/llm"
	"adaptive-quiz-service/internal/oracle"
	"github.com/rs/zerolog"
)

func newTestService(t *testing.T) (*app.SessionService, *llm.MockProvider) {
	t.Helper()
	mock := llm.NewMockProvider()
	o := oracle.New(mock, oracle.DefaultConfig())
	ledger := memory.NewLedger()
	stores := app.Stores{
		Sessions:   memory.NewSessionStore(),
		Exclusions: memory.NewExclusionStore(),
		Ledger:     ledger,
		Users:      ledger,
		History:    memory.NewHistoryStore(),
		Topics:     memory.NewTopicStore(),
	}
	oracles := app.Oracles{Questions: o, Grader: o, Summary: o}
	return app.NewSessionService(stores, oracles, app.Options{}, nil, zerolog.Nop()), mock
}
