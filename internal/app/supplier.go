package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxGenerateAttempts is the total oracle budget per question, retries included.
const maxGenerateAttempts = 3

// Dedup fallback modes applied once the attempt budget is spent.
const (
	FallbackPrefix = "prefix"
	FallbackFail   = "fail"
)

// Supplier asks the question oracle for a question the user has not seen and
// appends it to the session.
type Supplier struct {
	sessions   SessionStore
	exclusions *ExclusionSet
	oracle     QuestionOracle
	avoidLimit int
	fallback   string
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

func NewSupplier(sessions SessionStore, exclusions *ExclusionSet, oracle QuestionOracle, avoidLimit int, fallback string, m *metrics.Metrics, logger zerolog.Logger) *Supplier {
	if fallback == "" {
		fallback = FallbackPrefix
	}
	return &Supplier{
		sessions:   sessions,
		exclusions: exclusions,
		oracle:     oracle,
		avoidLimit: avoidLimit,
		fallback:   fallback,
		metrics:    m,
		logger:     logger.With().Str("component", "supplier").Logger(),
		now:        time.Now,
	}
}

// Next generates, dedups and appends the next question of session. It is
// refused while the tail item still waits for an answer.
func (s *Supplier) Next(ctx context.Context, session domain.Session) (domain.Question, error) {
	var (
		items    []domain.SessionItem
		excluded []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.sessions.Items(gctx, session.ID)
		return err
	})
	g.Go(func() error {
		var err error
		excluded, err = s.exclusions.List(gctx, session.Username)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Question{}, err
	}

	working := session.StartingDifficulty
	if n := len(items); n > 0 {
		tail := items[n-1]
		if tail.Pending() {
			return domain.Question{}, domain.ErrAnswerPending
		}
		working = tail.FinalDifficulty
	}
	working = domain.ParseDifficulty(string(working))

	avoid := make(map[string]struct{}, len(excluded)+len(items))
	prompt := make([]string, 0, len(excluded)+len(items))
	for _, q := range excluded {
		avoid[domain.NormalizeQuestion(q)] = struct{}{}
		prompt = append(prompt, q)
	}
	for _, it := range items {
		avoid[domain.NormalizeQuestion(it.Question)] = struct{}{}
		prompt = append(prompt, it.Question)
	}
	if s.avoidLimit > 0 && len(prompt) > s.avoidLimit {
		prompt = prompt[len(prompt)-s.avoidLimit:]
	}

	text, prefixed, err := s.generate(ctx, session.Topic, working, avoid, prompt)
	if err != nil {
		return domain.Question{}, err
	}

	item := domain.SessionItem{
		Ordinal:            len(items) + 1,
		Question:           text,
		Topic:              session.Topic,
		StartingDifficulty: working,
		FinalDifficulty:    working,
		CreatedAt:          s.now().UTC(),
		State:              domain.ItemAsked,
	}
	if err := s.sessions.Append(ctx, session.ID, item); err != nil {
		return domain.Question{}, fmt.Errorf("append item: %w", err)
	}
	s.metrics.QuestionGenerated(prefixed)

	return domain.Question{
		SessionID:  session.ID,
		Text:       item.Question,
		Difficulty: item.StartingDifficulty,
		Ordinal:    item.Ordinal,
	}, nil
}

func (s *Supplier) generate(ctx context.Context, topic string, difficulty domain.Difficulty, avoid map[string]struct{}, prompt []string) (string, bool, error) {
	var candidate string
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		raw, err := s.oracle.GenerateQuestion(ctx, topic, difficulty, prompt)
		if err != nil {
			s.metrics.OracleFailure(domain.OpGeneration)
			return "", false, upstream(domain.OpGeneration, err)
		}
		candidate = domain.CleanQuestion(raw)
		if candidate == "" {
			s.metrics.OracleFailure(domain.OpGeneration)
			return "", false, &domain.UpstreamError{Op: domain.OpGeneration, Err: errors.New("empty question")}
		}
		if _, dup := avoid[domain.NormalizeQuestion(candidate)]; !dup {
			return candidate, false, nil
		}
		s.metrics.DuplicateRetry()
		s.logger.Info().Int("attempt", attempt).Str("topic", topic).Msg("oracle repeated a question")
	}

	if s.fallback == FallbackFail {
		return "", false, domain.ErrDuplicateQuestion
	}
	s.logger.Warn().Str("topic", topic).Msg("dedup budget exhausted, prefixing topic")
	return prefixQuestion(topic, candidate, s.exclusions.maxLen), true, nil
}

// prefixQuestion tags question with its topic while keeping the result within
// maxLen runes, so the exclusion set can still store it. The topic is
// shortened first; the question is cut only when it alone leaves no room.
func prefixQuestion(topic, question string, maxLen int) string {
	out := "[" + topic + "] " + question
	if maxLen <= 0 || utf8.RuneCountInString(out) <= maxLen {
		return out
	}
	if room := maxLen - utf8.RuneCountInString(question) - len("[] "); room >= 1 {
		return "[" + truncateRunes(topic, room) + "] " + question
	}
	return strings.TrimSpace(truncateRunes(out, maxLen))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
