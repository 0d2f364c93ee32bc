package postgres

import (
	"context"
	"fmt"

	"adaptive-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// HistoryStore archives graded answers in Postgres, keeping the newest
// limit rows per user.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

func (s *HistoryStore) Append(ctx context.Context, r domain.HistoryRecord, limit int) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO answer_history
    (username, session_id, ordinal, question, topic, difficulty, user_answer, is_correct, explanation, points_delta, score_after, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			r.Username, r.SessionID, r.Ordinal, r.Question, r.Topic, string(r.Difficulty),
			r.UserAnswer, r.Correct, r.Explanation, r.PointsDelta, r.ScoreAfter, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		if limit <= 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `
DELETE FROM answer_history
WHERE username = $1
  AND id NOT IN (
    SELECT id FROM answer_history WHERE username = $1 ORDER BY id DESC LIMIT $2
  )`, r.Username, limit)
		if err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		return nil
	})
}

func (s *HistoryStore) List(ctx context.Context, username string, limit int) ([]domain.HistoryRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx, `
SELECT username, session_id, ordinal, question, topic, difficulty, user_answer, is_correct, explanation, points_delta, score_after, created_at
FROM answer_history
WHERE username = $1
ORDER BY id DESC
LIMIT $2`, username, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.HistoryRecord, 0, limit)
	for rows.Next() {
		var (
			r          domain.HistoryRecord
			difficulty string
		)
		if err := rows.Scan(&r.Username, &r.SessionID, &r.Ordinal, &r.Question, &r.Topic, &difficulty,
			&r.UserAnswer, &r.Correct, &r.Explanation, &r.PointsDelta, &r.ScoreAfter, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.Difficulty = domain.ParseDifficulty(difficulty)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return out, nil
}

func (s *HistoryStore) Wipe(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE answer_history`); err != nil {
		return fmt.Errorf("wipe history: %w", err)
	}
	return nil
}
