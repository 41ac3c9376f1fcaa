package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopql_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopql_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	stageDurationMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopql_stage_duration_ms",
			Help:    "Pipeline stage latency in milliseconds.",
			Buckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"stage"},
	)

	stageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopql_stage_failures_total",
			Help: "Total number of fatal pipeline stage failures by kind.",
		},
		[]string{"stage", "kind"},
	)

	advisoryDegradationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shopql_advisory_degradations_total",
			Help: "Visualization advisor failures replaced with default advice.",
		},
	)

	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopql_questions_total",
			Help: "Questions answered by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		stageDurationMs,
		stageFailuresTotal,
		advisoryDegradationsTotal,
		questionsTotal,
	)
}

func ObserveHTTPRequest(method, route, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

func ObserveStage(stage string, elapsed time.Duration) {
	stageDurationMs.WithLabelValues(stage).Observe(float64(elapsed.Milliseconds()))
}

func IncrementStageFailure(stage, kind string) {
	stageFailuresTotal.WithLabelValues(stage, kind).Inc()
}

func IncrementAdvisoryDegradation() {
	advisoryDegradationsTotal.Inc()
}

// ObserveQuestion records the final outcome of one pipeline run
func ObserveQuestion(failed bool) {
	outcome := "answered"
	if failed {
		outcome = "failed"
	}
	questionsTotal.WithLabelValues(outcome).Inc()
}
