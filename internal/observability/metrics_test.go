package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/ask", "200"))
	ObserveHTTPRequest("POST", "/api/ask", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/ask", "200"))
	if after-before != 1 {
		t.Fatalf("request counter delta = %v, want 1", after-before)
	}
}

func TestStageCounters(t *testing.T) {
	before := testutil.ToFloat64(stageFailuresTotal.WithLabelValues("execute", "execution"))
	IncrementStageFailure("execute", "execution")
	if got := testutil.ToFloat64(stageFailuresTotal.WithLabelValues("execute", "execution")) - before; got != 1 {
		t.Fatalf("stage failure delta = %v, want 1", got)
	}

	before = testutil.ToFloat64(advisoryDegradationsTotal)
	IncrementAdvisoryDegradation()
	if got := testutil.ToFloat64(advisoryDegradationsTotal) - before; got != 1 {
		t.Fatalf("degradation delta = %v, want 1", got)
	}

	before = testutil.ToFloat64(questionsTotal.WithLabelValues("failed"))
	ObserveQuestion(true)
	if got := testutil.ToFloat64(questionsTotal.WithLabelValues("failed")) - before; got != 1 {
		t.Fatalf("failed question delta = %v, want 1", got)
	}

	// histograms only need to accept observations
	ObserveStage("generate_sql", 120*time.Millisecond)
}
