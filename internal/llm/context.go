package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// Purposes used to label oracle calls.
const (
	PurposeQuestion   = "question"
	PurposeGrading    = "grading"
	PurposeSummary    = "summary"
	PurposeModeration = "moderation"
)

// WithPurpose labels the calls made with ctx for logs and metrics.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the purpose label, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
