// Package oracle implements the question, grading, summary and moderation
// oracles on top of an llm.Provider.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/llm"
)

// Config tunes the oracle requests.
type Config struct {
	MaxTokens   int
	Temperature float64
	// AvoidLimit bounds how many prior questions are listed in the prompt.
	AvoidLimit int
	// Timeout bounds each oracle call. Zero means no extra deadline.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{MaxTokens: 1024, Temperature: 0.7, AvoidLimit: 200, Timeout: 30 * time.Second}
}

// Oracle serves every oracle port with one provider.
type Oracle struct {
	provider llm.Provider
	config   Config
}

func New(provider llm.Provider, cfg Config) *Oracle {
	return &Oracle{provider: provider, config: cfg}
}

type questionOutput struct {
	Question string `json:"question"`
}

type gradeOutput struct {
	Correct         bool   `json:"correct"`
	Explanation     string `json:"explanation"`
	DifficultyDelta *int   `json:"difficulty_delta"`
}

type summaryOutput struct {
	Feedback string `json:"feedback"`
	Rating   string `json:"rating"`
}

type moderationOutput struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

func (o *Oracle) GenerateQuestion(ctx context.Context, topic string, difficulty domain.Difficulty, avoid []string) (string, error) {
	var out questionOutput
	err := o.call(ctx, domain.OpGeneration, llm.PurposeQuestion, llm.Request{
		System: questionSystemPrompt,
		Prompt: questionMessage(topic, difficulty, avoid, o.config.AvoidLimit),
		Schema: QuestionSchema,
	}, &out)
	if err != nil {
		return "", err
	}
	question := strings.TrimSpace(out.Question)
	if question == "" {
		return "", &domain.UpstreamError{Op: domain.OpGeneration, Err: errors.New("empty question")}
	}
	return question, nil
}

func (o *Oracle) Grade(ctx context.Context, question, answer string, difficulty domain.Difficulty) (domain.Grade, error) {
	var out gradeOutput
	err := o.call(ctx, domain.OpGrading, llm.PurposeGrading, llm.Request{
		System: gradingSystemPrompt,
		Prompt: gradingMessage(question, answer, difficulty),
		Schema: GradeSchema,
	}, &out)
	if err != nil {
		return domain.Grade{}, err
	}
	return domain.Grade{
		Correct:        out.Correct,
		Explanation:    strings.TrimSpace(out.Explanation),
		SuggestedDelta: out.DifficultyDelta,
	}, nil
}

func (o *Oracle) Summarize(ctx context.Context, transcript []domain.SessionItem, start domain.Difficulty) (domain.Summary, error) {
	var out summaryOutput
	err := o.call(ctx, domain.OpSummary, llm.PurposeSummary, llm.Request{
		System: summarySystemPrompt,
		Prompt: summaryMessage(transcript, start),
		Schema: SummarySchema,
	}, &out)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summary{
		Feedback: strings.TrimSpace(out.Feedback),
		Rating:   domain.ParseDifficulty(strings.ToLower(strings.TrimSpace(out.Rating))),
	}, nil
}

func (o *Oracle) ModerateUsername(ctx context.Context, username string) (bool, string, error) {
	var out moderationOutput
	err := o.call(ctx, domain.OpModeration, llm.PurposeModeration, llm.Request{
		System: moderationSystemPrompt,
		Prompt: moderationMessage(username),
		Schema: ModerationSchema,
	}, &out)
	if err != nil {
		return false, "", err
	}
	return out.Allowed, strings.TrimSpace(out.Reason), nil
}

// call runs req and decodes the response strictly into out. Every failure is
// reported as an UpstreamError for op.
func (o *Oracle) call(ctx context.Context, op, purpose string, req llm.Request, out any) error {
	ctx = llm.WithPurpose(ctx, purpose)
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}
	req.MaxTokens = o.config.MaxTokens
	req.Temperature = o.config.Temperature

	resp, err := o.provider.Generate(ctx, req)
	if err != nil {
		return &domain.UpstreamError{Op: op, Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(resp.Content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &domain.UpstreamError{Op: op, Err: fmt.Errorf("decode %s response: %w", req.Schema.Name, err)}
	}
	return nil
}
