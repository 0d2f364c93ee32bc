package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	gradingFallbackExplanation = "The answer could not be graded automatically and was recorded as incorrect."
	summaryFallbackFeedback    = "Session complete. Detailed feedback is unavailable right now."

	minUsernameLen      = 3
	maxUsernameLen      = 32
	defaultHistoryLimit = 50
)

// Options tunes the session engine.
type Options struct {
	MaxQuestionLength int
	AvoidPromptLimit  int
	DedupFallback     string
	HistoryCap        int
	LeaderboardLimit  int
	Blocklist         []string

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// SessionService contains the assessment session use cases.
type SessionService struct {
	stores     Stores
	oracles    Oracles
	exclusions *ExclusionSet
	supplier   *Supplier
	opts       Options
	wipers     []Wiper
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	leaders    singleflight.Group
}

func NewSessionService(stores Stores, oracles Oracles, opts Options, m *metrics.Metrics, logger zerolog.Logger) *SessionService {
	if opts.HistoryCap <= 0 {
		opts.HistoryCap = 1000
	}
	if opts.LeaderboardLimit <= 0 {
		opts.LeaderboardLimit = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	exclusions := NewExclusionSet(stores.Exclusions, opts.MaxQuestionLength)
	supplier := NewSupplier(stores.Sessions, exclusions, oracles.Questions, opts.AvoidPromptLimit, opts.DedupFallback, m, logger)
	supplier.now = opts.Now

	svc := &SessionService{
		stores:     stores,
		oracles:    oracles,
		exclusions: exclusions,
		supplier:   supplier,
		opts:       opts,
		metrics:    m,
		logger:     logger.With().Str("component", "sessions").Logger(),
	}
	seen := make(map[Wiper]struct{})
	for _, s := range []any{stores.Sessions, stores.Exclusions, stores.Ledger, stores.Users, stores.History, stores.Topics} {
		if w, ok := s.(Wiper); ok {
			if _, dup := seen[w]; !dup {
				seen[w] = struct{}{}
				svc.wipers = append(svc.wipers, w)
			}
		}
	}
	return svc
}

// Register creates a user after the local blocklist and the moderation
// oracle accept the name. Moderation failures reject the registration.
func (s *SessionService) Register(ctx context.Context, username string) (domain.User, error) {
	if strings.TrimSpace(username) == "" {
		return domain.User{}, &domain.ValidationError{Field: "username", Reason: "required"}
	}
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return domain.User{}, &domain.ValidationError{
			Field:  "username",
			Reason: fmt.Sprintf("must be %d-%d characters", minUsernameLen, maxUsernameLen),
		}
	}
	lower := strings.ToLower(username)
	for _, blocked := range s.opts.Blocklist {
		if blocked != "" && strings.Contains(lower, strings.ToLower(blocked)) {
			return domain.User{}, fmt.Errorf("%w: contains a blocked term", domain.ErrUsernameRejected)
		}
	}
	if s.oracles.Moderator != nil {
		ok, reason, err := s.oracles.Moderator.ModerateUsername(ctx, username)
		if err != nil {
			s.metrics.OracleFailure(domain.OpModeration)
			return domain.User{}, upstream(domain.OpModeration, err)
		}
		if !ok {
			if reason == "" {
				reason = "not allowed"
			}
			return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUsernameRejected, reason)
		}
	}

	user := domain.User{Username: username, CreatedAt: s.opts.Now().UTC()}
	if err := s.stores.Users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.logger.Info().Str("username", username).Msg("user registered")
	return user, nil
}

// User returns the ledger counters for username.
func (s *SessionService) User(ctx context.Context, username string) (domain.User, error) {
	return s.stores.Users.Get(ctx, username)
}

// StartSession opens a session for a registered user.
func (s *SessionService) StartSession(ctx context.Context, username, topic, difficulty string) (domain.Session, error) {
	if strings.TrimSpace(username) == "" {
		return domain.Session{}, &domain.ValidationError{Field: "username", Reason: "required"}
	}
	if _, err := s.stores.Users.Get(ctx, username); err != nil {
		return domain.Session{}, err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = domain.DefaultTopic
	}
	session := domain.Session{
		ID:                 s.opts.NewID(),
		Username:           username,
		Topic:              topic,
		StartingDifficulty: domain.ParseDifficulty(strings.TrimSpace(difficulty)),
		CreatedAt:          s.opts.Now().UTC(),
	}
	if err := s.stores.Sessions.Create(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Session returns the session header and its items.
func (s *SessionService) Session(ctx context.Context, id string) (domain.Session, []domain.SessionItem, error) {
	session, err := s.stores.Sessions.Get(ctx, id)
	if err != nil {
		return domain.Session{}, nil, err
	}
	items, err := s.stores.Sessions.Items(ctx, id)
	if err != nil {
		return domain.Session{}, nil, err
	}
	return session, items, nil
}

// NextQuestion asks the supplier for the session's next question.
func (s *SessionService) NextQuestion(ctx context.Context, sessionID string) (domain.Question, error) {
	session, err := s.openSession(ctx, sessionID)
	if err != nil {
		return domain.Question{}, err
	}
	return s.supplier.Next(ctx, session)
}

// GradeAnswer grades the pending tail question, applies the score delta and
// patches the tail item. Grading oracle failures degrade to an incorrect
// answer with no difficulty change.
func (s *SessionService) GradeAnswer(ctx context.Context, sessionID, answer string) (domain.GradeResult, error) {
	if strings.TrimSpace(answer) == "" {
		return domain.GradeResult{}, &domain.ValidationError{Field: "answer", Reason: "required"}
	}
	session, err := s.openSession(ctx, sessionID)
	if err != nil {
		return domain.GradeResult{}, err
	}
	items, err := s.stores.Sessions.Items(ctx, sessionID)
	if err != nil {
		return domain.GradeResult{}, err
	}
	if len(items) == 0 || !items[len(items)-1].Pending() {
		return domain.GradeResult{}, domain.ErrNoPendingQuestion
	}
	tail := items[len(items)-1]
	asked := domain.ParseDifficulty(string(tail.StartingDifficulty))

	degraded := false
	grade, err := s.oracles.Grader.Grade(ctx, tail.Question, answer, asked)
	if err != nil {
		degraded = true
		s.metrics.OracleFailure(domain.OpGrading)
		s.logger.Warn().Err(err).Str("session", sessionID).Msg("grading failed, recording as incorrect")
		zero := 0
		grade = domain.Grade{Correct: false, Explanation: gradingFallbackExplanation, SuggestedDelta: &zero}
	}

	delta := domain.ClampDelta(grade.SuggestedDelta, grade.Correct)
	next := domain.Bump(asked, delta)
	points := domain.PointsFor(asked, grade.Correct)

	score, err := s.stores.Ledger.ApplyDelta(ctx, session.Username, points, grade.Correct)
	if err != nil {
		return domain.GradeResult{}, fmt.Errorf("apply score: %w", err)
	}

	now := s.opts.Now().UTC()
	record := domain.HistoryRecord{
		Username:    session.Username,
		SessionID:   sessionID,
		Ordinal:     tail.Ordinal,
		Question:    tail.Question,
		Topic:       tail.Topic,
		Difficulty:  asked,
		UserAnswer:  answer,
		Correct:     grade.Correct,
		Explanation: grade.Explanation,
		PointsDelta: points,
		ScoreAfter:  score,
		CreatedAt:   now,
	}
	if err := s.stores.History.Append(ctx, record, s.opts.HistoryCap); err != nil {
		s.logger.Warn().Err(err).Str("username", session.Username).Msg("history append failed")
	}

	tail.FinalDifficulty = next
	tail.State = domain.ItemGraded
	tail.Grade = &domain.ItemGrade{
		UserAnswer:  answer,
		Correct:     grade.Correct,
		Explanation: grade.Explanation,
		PointsDelta: &points,
		ScoreAfter:  &score,
		GradedAt:    now,
	}
	if err := s.stores.Sessions.PatchLast(ctx, sessionID, tail); err != nil {
		return domain.GradeResult{}, fmt.Errorf("patch item: %w", err)
	}
	s.metrics.AnswerGraded(grade.Correct, degraded)

	return domain.GradeResult{
		SessionID:       sessionID,
		Ordinal:         tail.Ordinal,
		Correct:         grade.Correct,
		Explanation:     grade.Explanation,
		DifficultyDelta: delta,
		NextDifficulty:  next,
		PointsDelta:     points,
		ScoreAfter:      score,
		Degraded:        degraded,
	}, nil
}

// Conclude folds the session's questions into the user's exclusions, asks for
// a summary and closes the session.
func (s *SessionService) Conclude(ctx context.Context, sessionID string) (domain.ConcludeResult, error) {
	session, err := s.openSession(ctx, sessionID)
	if err != nil {
		return domain.ConcludeResult{}, err
	}
	items, err := s.stores.Sessions.Items(ctx, sessionID)
	if err != nil {
		return domain.ConcludeResult{}, err
	}

	questions := make([]string, 0, len(items))
	points := 0
	for _, it := range items {
		questions = append(questions, it.Question)
		points += it.Points()
	}
	added, err := s.exclusions.Merge(ctx, session.Username, questions)
	if err != nil {
		return domain.ConcludeResult{}, err
	}
	count, err := s.exclusions.Count(ctx, session.Username)
	if err != nil {
		return domain.ConcludeResult{}, err
	}

	start := domain.ParseDifficulty(string(session.StartingDifficulty))
	summary, err := s.oracles.Summary.Summarize(ctx, items, start)
	if err != nil {
		s.metrics.OracleFailure(domain.OpSummary)
		s.logger.Warn().Err(err).Str("session", sessionID).Msg("summary failed, using generic feedback")
		summary = domain.Summary{Feedback: summaryFallbackFeedback, Rating: start}
	}
	if !summary.Rating.Valid() {
		summary.Rating = domain.ParseDifficulty(string(summary.Rating))
	}

	now := s.opts.Now().UTC()
	session.ConcludedAt = &now
	if err := s.stores.Sessions.MarkConcluded(ctx, sessionID, session); err != nil {
		return domain.ConcludeResult{}, err
	}
	if err := s.stores.Topics.AddCompleted(ctx, session.Username, session.Topic); err != nil {
		s.logger.Warn().Err(err).Str("username", session.Username).Msg("record completed topic failed")
	}
	s.metrics.SessionConcluded()
	s.logger.Info().
		Str("session", sessionID).
		Str("username", session.Username).
		Int("items", len(items)).
		Int("added", added).
		Int("points", points).
		Msg("session concluded")

	return domain.ConcludeResult{
		SessionID:          sessionID,
		NewExclusionCount:  count,
		NextQuestionNumber: count + 1,
		Feedback:           summary.Feedback,
		Rating:             summary.Rating,
		SessionPoints:      points,
	}, nil
}

// History lists the user's most recent graded answers, newest first.
func (s *SessionService) History(ctx context.Context, username string, limit int) ([]domain.HistoryRecord, error) {
	if _, err := s.stores.Users.Get(ctx, username); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > s.opts.HistoryCap {
		limit = s.opts.HistoryCap
	}
	return s.stores.History.List(ctx, username, limit)
}

// CompletedTopics lists the distinct topics the user has concluded.
func (s *SessionService) CompletedTopics(ctx context.Context, username string) ([]string, error) {
	if _, err := s.stores.Users.Get(ctx, username); err != nil {
		return nil, err
	}
	return s.stores.Topics.Completed(ctx, username)
}

// Exclusions returns the user's exclusion count and list.
func (s *SessionService) Exclusions(ctx context.Context, username string) (int, []string, error) {
	if _, err := s.stores.Users.Get(ctx, username); err != nil {
		return 0, nil, err
	}
	list, err := s.exclusions.List(ctx, username)
	if err != nil {
		return 0, nil, err
	}
	return len(list), list, nil
}

// Leaderboard returns the top entries. Concurrent reads for the same limit
// share one store call.
func (s *SessionService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > s.opts.LeaderboardLimit {
		limit = s.opts.LeaderboardLimit
	}
	v, err, _ := s.leaders.Do(strconv.Itoa(limit), func() (interface{}, error) {
		return s.stores.Ledger.Top(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.LeaderboardEntry), nil
}

// Wipe deletes every engine key in every store that supports it.
func (s *SessionService) Wipe(ctx context.Context) error {
	var errs []error
	for _, w := range s.wipers {
		if err := w.Wipe(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("wipe: %w", err)
	}
	s.logger.Warn().Int("stores", len(s.wipers)).Msg("engine data wiped")
	return nil
}

func (s *SessionService) openSession(ctx context.Context, id string) (domain.Session, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Session{}, &domain.ValidationError{Field: "session_id", Reason: "required"}
	}
	session, err := s.stores.Sessions.Get(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if session.Concluded() {
		return domain.Session{}, domain.ErrSessionConcluded
	}
	return session, nil
}

func upstream(op string, err error) error {
	var up *domain.UpstreamError
	if errors.As(err, &up) {
		return err
	}
	return &domain.UpstreamError{Op: op, Err: err}
}
