package domain

import "time"

// DefaultTopic is used when a session is started without one.
const DefaultTopic = "random"

// User carries the per-user counters kept by the score ledger.
type User struct {
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Answered  int       `json:"answered"`
	Correct   int       `json:"correct"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExclusionEntry is a previously asked question in stored and normalized form.
type ExclusionEntry struct {
	Question   string
	Normalized string
}

// Session is the immutable header of a quiz session.
type Session struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	Topic              string     `json:"topic"`
	StartingDifficulty Difficulty `json:"startingDifficulty"`
	CreatedAt          time.Time  `json:"createdAt"`
	ConcludedAt        *time.Time `json:"concludedAt,omitempty"`
}

// Concluded reports whether the session has been closed.
func (s Session) Concluded() bool {
	return s.ConcludedAt != nil
}

// ItemState tracks how far a session item has progressed.
type ItemState string

const (
	ItemAsked  ItemState = "asked"
	ItemGraded ItemState = "graded"
)

// ItemGrade is attached to the tail item once it has been answered.
type ItemGrade struct {
	UserAnswer  string    `json:"userAnswer"`
	Correct     bool      `json:"isCorrect"`
	Explanation string    `json:"explanation"`
	PointsDelta *int      `json:"pointsDelta,omitempty"` // nil on items recorded before scoring existed
	ScoreAfter  *int      `json:"scoreAfter,omitempty"`
	GradedAt    time.Time `json:"gradedAt"`
}

// SessionItem is one question/answer entry in a session's append-only log.
type SessionItem struct {
	Ordinal            int        `json:"ordinal"`
	Question           string     `json:"question"`
	Topic              string     `json:"topic"`
	StartingDifficulty Difficulty `json:"startingDifficulty"`
	FinalDifficulty    Difficulty `json:"finalDifficulty"`
	CreatedAt          time.Time  `json:"createdAt"`
	State              ItemState  `json:"state"`
	Grade              *ItemGrade `json:"grade,omitempty"`
}

// Pending reports whether the item still waits for an answer.
func (i SessionItem) Pending() bool {
	return i.State != ItemGraded
}

// Points returns the score delta recorded for the item. Graded items without a
// recorded delta fall back to the points formula at the starting difficulty.
func (i SessionItem) Points() int {
	if i.State != ItemGraded || i.Grade == nil {
		return 0
	}
	if i.Grade.PointsDelta != nil {
		return *i.Grade.PointsDelta
	}
	return PointsFor(i.StartingDifficulty, i.Grade.Correct)
}

// Question is what the supplier hands back to the caller.
type Question struct {
	SessionID  string     `json:"sessionId"`
	Text       string     `json:"question"`
	Difficulty Difficulty `json:"difficulty"`
	Ordinal    int        `json:"ordinal"`
}

// Grade is the grading oracle's verdict. SuggestedDelta is nil when the oracle
// did not provide one.
type Grade struct {
	Correct        bool
	Explanation    string
	SuggestedDelta *int
}

// GradeResult is returned to the caller after an answer has been graded.
type GradeResult struct {
	SessionID       string     `json:"sessionId"`
	Ordinal         int        `json:"ordinal"`
	Correct         bool       `json:"isCorrect"`
	Explanation     string     `json:"explanation"`
	DifficultyDelta int        `json:"difficultyDelta"`
	NextDifficulty  Difficulty `json:"nextDifficulty"`
	PointsDelta     int        `json:"pointsDelta"`
	ScoreAfter      int        `json:"scoreAfter"`
	Degraded        bool       `json:"degraded,omitempty"`
}

// Summary is the summary oracle's end-of-session feedback.
type Summary struct {
	Feedback string
	Rating   Difficulty
}

// ConcludeResult is returned when a session is concluded.
type ConcludeResult struct {
	SessionID          string     `json:"sessionId"`
	NewExclusionCount  int        `json:"newExclusionCount"`
	NextQuestionNumber int        `json:"nextQuestionNumber"`
	Feedback           string     `json:"feedback"`
	Rating             Difficulty `json:"rating"`
	SessionPoints      int        `json:"sessionPoints"`
}

// HistoryRecord is an immutable log line for one graded answer.
type HistoryRecord struct {
	Username    string     `json:"username"`
	SessionID   string     `json:"sessionId"`
	Ordinal     int        `json:"ordinal"`
	Question    string     `json:"question"`
	Topic       string     `json:"topic"`
	Difficulty  Difficulty `json:"difficulty"`
	UserAnswer  string     `json:"userAnswer"`
	Correct     bool       `json:"isCorrect"`
	Explanation string     `json:"explanation"`
	PointsDelta int        `json:"pointsDelta"`
	ScoreAfter  int        `json:"scoreAfter"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// LeaderboardEntry is a ranked view of a user's score.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}
