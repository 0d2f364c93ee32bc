package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the engine's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	questionsGenerated *prometheus.CounterVec
	duplicateRetries   prometheus.Counter
	answersGraded      *prometheus.CounterVec
	oracleFailures     *prometheus.CounterVec
	sessionsConcluded  prometheus.Counter
	llmDuration        *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		questionsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_questions_generated_total",
			Help: "Questions appended to sessions, by dedup outcome.",
		}, []string{"outcome"}),
		duplicateRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_duplicate_retries_total",
			Help: "Oracle candidates rejected as duplicates.",
		}),
		answersGraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_answers_graded_total",
			Help: "Graded answers, by result.",
		}, []string{"result"}),
		oracleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_oracle_failures_total",
			Help: "Failed or unparseable oracle calls, by operation.",
		}, []string{"op"}),
		sessionsConcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_sessions_concluded_total",
			Help: "Sessions concluded.",
		}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quiz_llm_request_duration_seconds",
			Help:    "LLM request latency.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"provider", "purpose"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.questionsGenerated,
			m.duplicateRetries,
			m.answersGraded,
			m.oracleFailures,
			m.sessionsConcluded,
			m.llmDuration,
		)
	}
	return m
}

func (m *Metrics) QuestionGenerated(prefixed bool) {
	if m == nil {
		return
	}
	outcome := "unique"
	if prefixed {
		outcome = "prefixed"
	}
	m.questionsGenerated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) DuplicateRetry() {
	if m == nil {
		return
	}
	m.duplicateRetries.Inc()
}

// AnswerGraded records one graded answer. degraded wins over correct.
func (m *Metrics) AnswerGraded(correct, degraded bool) {
	if m == nil {
		return
	}
	result := "incorrect"
	switch {
	case degraded:
		result = "degraded"
	case correct:
		result = "correct"
	}
	m.answersGraded.WithLabelValues(result).Inc()
}

func (m *Metrics) OracleFailure(op string) {
	if m == nil {
		return
	}
	m.oracleFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) SessionConcluded() {
	if m == nil {
		return
	}
	m.sessionsConcluded.Inc()
}

func (m *Metrics) ObserveLLM(provider, purpose string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmDuration.WithLabelValues(provider, purpose).Observe(d.Seconds())
}
