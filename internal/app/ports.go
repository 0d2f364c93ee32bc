package app

import (
	"context"

	"adaptive-quiz-service/internal/domain"
)

// SessionStore keeps session headers and their append-only item logs.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	Items(ctx context.Context, id string) ([]domain.SessionItem, error)
	Append(ctx context.Context, id string, item domain.SessionItem) error
	// PatchLast replaces the tail item. It fails when the session has no items.
	PatchLast(ctx context.Context, id string, item domain.SessionItem) error
	// MarkConcluded sets the conclusion time once. It returns
	// domain.ErrSessionConcluded when the session was already concluded.
	MarkConcluded(ctx context.Context, id string, session domain.Session) error
}

// ExclusionStore persists a user's previously asked questions. Merge stores
// the list and its normalized index together and returns how many entries
// were new.
type ExclusionStore interface {
	Count(ctx context.Context, username string) (int, error)
	List(ctx context.Context, username string) ([]string, error)
	Merge(ctx context.Context, username string, entries []domain.ExclusionEntry) (int, error)
}

// ScoreLedger applies score deltas and answers leaderboard queries.
type ScoreLedger interface {
	// ApplyDelta updates counters, score and leaderboard in one atomic unit,
	// flooring the score at zero, and returns the new score.
	ApplyDelta(ctx context.Context, username string, delta int, correct bool) (int, error)
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// UserStore keeps registered users. Create returns domain.ErrUserExists for a
// taken username and seeds the leaderboard with a zero score.
type UserStore interface {
	Create(ctx context.Context, user domain.User) error
	Get(ctx context.Context, username string) (domain.User, error)
}

// HistoryStore keeps the most recent graded answers per user.
type HistoryStore interface {
	Append(ctx context.Context, record domain.HistoryRecord, limit int) error
	List(ctx context.Context, username string, limit int) ([]domain.HistoryRecord, error)
}

// TopicStore records the distinct topics a user has concluded.
type TopicStore interface {
	AddCompleted(ctx context.Context, username, topic string) error
	Completed(ctx context.Context, username string) ([]string, error)
}

// Wiper is implemented by stores that support the administrative bulk wipe.
type Wiper interface {
	Wipe(ctx context.Context) error
}

// QuestionOracle produces candidate questions.
type QuestionOracle interface {
	GenerateQuestion(ctx context.Context, topic string, difficulty domain.Difficulty, avoid []string) (string, error)
}

// GradingOracle judges an answer.
type GradingOracle interface {
	Grade(ctx context.Context, question, answer string, difficulty domain.Difficulty) (domain.Grade, error)
}

// SummaryOracle writes end-of-session feedback.
type SummaryOracle interface {
	Summarize(ctx context.Context, transcript []domain.SessionItem, start domain.Difficulty) (domain.Summary, error)
}

// Moderator vets usernames at registration.
type Moderator interface {
	ModerateUsername(ctx context.Context, username string) (bool, string, error)
}

// Stores bundles the storage ports the service depends on.
type Stores struct {
	Sessions   SessionStore
	Exclusions ExclusionStore
	Ledger     ScoreLedger
	Users      UserStore
	History    HistoryStore
	Topics     TopicStore
}

// Oracles bundles the oracle ports. Moderator may be nil to skip the remote
// check.
type Oracles struct {
	Questions QuestionOracle
	Grader    GradingOracle
	Summary   SummaryOracle
	Moderator Moderator
}
