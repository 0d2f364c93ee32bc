package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.QuestionGenerated(false)
	m.QuestionGenerated(true)
	m.QuestionGenerated(true)
	m.AnswerGraded(true, true)
	m.OracleFailure("grading")
	m.ObserveLLM("mock", "grading", 20*time.Millisecond)

	if got := testutil.ToFloat64(m.questionsGenerated.WithLabelValues("prefixed")); got != 2 {
		t.Fatalf("expected 2 prefixed questions, got %v", got)
	}
	if got := testutil.ToFloat64(m.answersGraded.WithLabelValues("degraded")); got != 1 {
		t.Fatalf("expected degraded to win over correct, got %v", got)
	}
	if got := testutil.ToFloat64(m.oracleFailures.WithLabelValues("grading")); got != 1 {
		t.Fatalf("expected 1 grading failure, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.QuestionGenerated(true)
	m.DuplicateRetry()
	m.AnswerGraded(false, false)
	m.OracleFailure("summary")
	m.SessionConcluded()
	m.ObserveLLM("mock", "summary", time.Second)
}
