package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScoreMetrics records score engine activity.
type ScoreMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation string)
	RecordOperationSuccess(ctx context.Context, operation string)
	RecordOperationFailure(ctx context.Context, operation string)
	RecordOperationDuration(ctx context.Context, operation string, duration time.Duration)
	// RecordRecordIncrement counts one upsert against an aggregate table.
	RecordRecordIncrement(ctx context.Context, table string)
	// RecordDeckResolution counts how a deck name was resolved: catalog, canonical_id,
	// custom or not_found.
	RecordDeckResolution(ctx context.Context, tier string)
	RecordMigrationRows(ctx context.Context, replayed, skipped int)
}

// PrometheusScoreMetrics implements ScoreMetrics with client_golang collectors.
type PrometheusScoreMetrics struct {
	attempts      *prometheus.CounterVec
	successes     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	increments    *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
	migrationRows *prometheus.CounterVec
}

// NewPrometheusScoreMetrics registers the score collectors on reg.
func NewPrometheusScoreMetrics(reg prometheus.Registerer) *PrometheusScoreMetrics {
	m := &PrometheusScoreMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizboard",
			Subsystem: "score",
			Name:      "operation_attempts_total",
			Help:      "Score service operations started.",
		}, []string{"operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizboard",
			Subsystem: "score",
			Name:      "operation_successes_total",
			Help:      "Score service operations that completed without error.",
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizboard",
			Subsystem: "score",
			Name:      "operation_failures_total",
			Help:      "Score service operations that returned an error.",
		}, []string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quizboard",
			Subsystem: "score",
			Name:      "operation_duration_seconds",
			Help:      "Score service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		increments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizboard",
			Subsystem: "score",
			Name:      "record_increments_total",
			Help:      "Upserts applied per aggregate table.",
		}, []string{"table"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizboard",
			Subsystem: "deck",
			Name:      "resolutions_total",
			Help:      "Deck name resolutions by tier.",
		}, []string{"tier"}),
		migrationRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizboard",
			Subsystem: "migration",
			Name:      "rows_total",
			Help:      "Legacy rows processed by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.attempts, m.successes, m.failures, m.duration, m.increments, m.resolutions, m.migrationRows)
	return m
}

func (m *PrometheusScoreMetrics) RecordOperationAttempt(_ context.Context, operation string) {
	m.attempts.WithLabelValues(operation).Inc()
}

func (m *PrometheusScoreMetrics) RecordOperationSuccess(_ context.Context, operation string) {
	m.successes.WithLabelValues(operation).Inc()
}

func (m *PrometheusScoreMetrics) RecordOperationFailure(_ context.Context, operation string) {
	m.failures.WithLabelValues(operation).Inc()
}

func (m *PrometheusScoreMetrics) RecordOperationDuration(_ context.Context, operation string, duration time.Duration) {
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *PrometheusScoreMetrics) RecordRecordIncrement(_ context.Context, table string) {
	m.increments.WithLabelValues(table).Inc()
}

func (m *PrometheusScoreMetrics) RecordDeckResolution(_ context.Context, tier string) {
	m.resolutions.WithLabelValues(tier).Inc()
}

func (m *PrometheusScoreMetrics) RecordMigrationRows(_ context.Context, replayed, skipped int) {
	m.migrationRows.WithLabelValues("replayed").Add(float64(replayed))
	m.migrationRows.WithLabelValues("skipped").Add(float64(skipped))
}

// NoOpScoreMetrics discards everything.
type NoOpScoreMetrics struct{}

func (NoOpScoreMetrics) RecordOperationAttempt(context.Context, string)                 {}
func (NoOpScoreMetrics) RecordOperationSuccess(context.Context, string)                 {}
func (NoOpScoreMetrics) RecordOperationFailure(context.Context, string)                 {}
func (NoOpScoreMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoOpScoreMetrics) RecordRecordIncrement(context.Context, string)                  {}
func (NoOpScoreMetrics) RecordDeckResolution(context.Context, string)                   {}
func (NoOpScoreMetrics) RecordMigrationRows(context.Context, int, int)                  {}

var (
	_ ScoreMetrics = (*PrometheusScoreMetrics)(nil)
	_ ScoreMetrics = NoOpScoreMetrics{}
)
