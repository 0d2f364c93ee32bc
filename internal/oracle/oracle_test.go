package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOracle(responses ...string) (*Oracle, *llm.MockProvider) {
	mock := llm.NewMockProvider()
	for _, r := range responses {
		mock.AddJSON(r)
	}
	cfg := DefaultConfig()
	cfg.AvoidLimit = 2
	return New(mock, cfg), mock
}

func TestGenerateQuestion(t *testing.T) {
	o, mock := newOracle(`{"question":"  What does the loop of Henle do?  "}`)

	q, err := o.GenerateQuestion(context.Background(), "renal", domain.Resident1, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, "What does the loop of Henle do?", q)

	require.Len(t, mock.Calls, 1)
	req := mock.Calls[0]
	assert.Same(t, QuestionSchema, req.Schema)
	msg := req.Prompt
	assert.Contains(t, msg, "Topic: renal")
	assert.Contains(t, msg, "Difficulty: resident-1")
	assert.NotContains(t, msg, "1. a", "avoid list should keep only the most recent entries")
	assert.Contains(t, msg, "1. b\n2. c")
}

func TestGenerateQuestionEmptyIsUpstream(t *testing.T) {
	o, _ := newOracle(`{"question":"   "}`)

	_, err := o.GenerateQuestion(context.Background(), "renal", domain.Novice1, nil)
	var up *domain.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, domain.OpGeneration, up.Op)
}

func TestGrade(t *testing.T) {
	o, _ := newOracle(`{"correct":true,"explanation":"Right.","difficulty_delta":1}`)

	g, err := o.Grade(context.Background(), "q", "a", domain.Novice3)
	require.NoError(t, err)
	assert.True(t, g.Correct)
	assert.Equal(t, "Right.", g.Explanation)
	require.NotNil(t, g.SuggestedDelta)
	assert.Equal(t, 1, *g.SuggestedDelta)
}

func TestGradeMalformedIsUpstream(t *testing.T) {
	o, _ := newOracle(`{"correct":"maybe","explanation":"x","difficulty_delta":0}`)

	_, err := o.Grade(context.Background(), "q", "a", domain.Novice3)
	var up *domain.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, domain.OpGrading, up.Op)
	assert.True(t, domain.IsUpstream(err))
}

func TestProviderFailureIsUpstream(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddError(&llm.ErrProviderUnavailable{Err: errors.New("down")})
	o := New(mock, DefaultConfig())

	_, _, err := o.ModerateUsername(context.Background(), "alice")
	var up *domain.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, domain.OpModeration, up.Op)
	var unavailable *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)
}

func TestSummarizeParsesRating(t *testing.T) {
	tests := []struct {
		name   string
		rating string
		want   domain.Difficulty
	}{
		{"exact", "resident-2", domain.Resident2},
		{"case and space", " Attending ", domain.Attending},
		{"unknown", "expert", domain.Novice3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _ := newOracle(`{"feedback":"Good work.","rating":"` + tt.rating + `"}`)
			s, err := o.Summarize(context.Background(), nil, domain.Novice1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Rating)
			assert.Equal(t, "Good work.", s.Feedback)
		})
	}
}

func TestSummaryTranscript(t *testing.T) {
	items := []domain.SessionItem{
		{Ordinal: 1, Question: "Q1", StartingDifficulty: domain.Novice3, Grade: &domain.ItemGrade{UserAnswer: "A1", Correct: true}},
		{Ordinal: 2, Question: "Q2", StartingDifficulty: domain.Novice4},
	}
	msg := summaryMessage(items, domain.Novice3)
	assert.Contains(t, msg, "1. [novice-3] Q1")
	assert.Contains(t, msg, "Answer (correct): A1")
	assert.Contains(t, msg, "Not answered.")
	assert.True(t, strings.HasPrefix(msg, "Starting difficulty: novice-3"))
}

func TestModerateUsername(t *testing.T) {
	o, mock := newOracle(`{"allowed":false,"reason":"impersonates staff"}`)

	ok, reason, err := o.ModerateUsername(context.Background(), "admin_official")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "impersonates staff", reason)
	assert.Equal(t, 1, mock.CallCount())
}
