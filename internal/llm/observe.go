package llm

import (
	"context"
	"time"

	"adaptive-quiz-service/internal/metrics"
	"github.com/rs/zerolog"
)

// ObservedProvider logs every model call and records its latency.
type ObservedProvider struct {
	inner    Provider
	provider string
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// WithObservability wraps p with request logging and latency metrics.
func WithObservability(p Provider, provider string, logger zerolog.Logger, m *metrics.Metrics) Provider {
	return &ObservedProvider{
		inner:    p,
		provider: provider,
		logger:   logger.With().Str("component", "llm").Str("provider", provider).Logger(),
		metrics:  m,
	}
}

func (o *ObservedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := o.inner.Generate(ctx, req)

	elapsed := time.Since(start)
	o.metrics.ObserveLLM(o.provider, purpose, elapsed)

	ev := o.logger.Debug()
	if err != nil {
		ev = o.logger.Warn().Err(err)
	}
	ev = ev.Str("purpose", purpose).Dur("latency", elapsed)
	if resp != nil {
		ev = ev.Str("model", resp.Model).
			Int("input_tokens", resp.Usage.InputTokens).
			Int("output_tokens", resp.Usage.OutputTokens)
	}
	ev.Msg("llm request")

	return resp, err
}

func (o *ObservedProvider) ModelID() string {
	return o.inner.ModelID()
}
