package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryConfig controls the retry decorator.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// RetryProvider retries transient failures with exponential backoff and
// jitter. Schema violations get one more try; truncation and cancellation
// are final.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2
	}
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

type failure int

const (
	failFinal failure = iota
	failInvalid
	failTransient
)

func classify(err error) failure {
	var (
		truncated *ErrMaxTokensExceeded
		invalid   *ErrInvalidResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.As(err, &truncated):
		return failFinal
	case errors.As(err, &invalid):
		return failInvalid
	default:
		return failTransient
	}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	sawInvalid := false
	for attempt := 0; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		switch classify(err) {
		case failFinal:
			return nil, err
		case failInvalid:
			if sawInvalid {
				return nil, err
			}
			sawInvalid = true
		}
		if attempt+1 >= r.config.MaxAttempts {
			return nil, err
		}

		timer := time.NewTimer(r.delay(attempt, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// delay is InitialWait*Multiplier^attempt capped at MaxWait with ±20% jitter.
// A provider's Retry-After takes precedence.
func (r *RetryProvider) delay(attempt int, err error) time.Duration {
	var limited *ErrRateLimit
	if errors.As(err, &limited) && limited.RetryAfter > 0 {
		return limited.RetryAfter
	}
	ceiling := float64(r.config.MaxWait)
	wait := float64(r.config.InitialWait)
	for i := 0; i < attempt && (ceiling <= 0 || wait < ceiling); i++ {
		wait *= r.config.Multiplier
	}
	if ceiling > 0 && wait > ceiling {
		wait = ceiling
	}
	return time.Duration(wait * (0.8 + 0.4*rand.Float64()))
}
