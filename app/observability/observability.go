// Package observability builds the logger, metrics and tracer shared by every component.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const ServiceName = "quizboard"

// Config selects log verbosity and whether Prometheus metrics are collected.
type Config struct {
	LogLevel       string
	MetricsEnabled bool
}

// Observability bundles the components handed to each module.
type Observability struct {
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  ScoreMetrics
	Tracer   trace.Tracer
}

// New creates the process observability stack. Registry is nil when metrics are disabled.
func New(cfg Config) *Observability {
	obs := &Observability{
		Logger:  NewLogger(os.Stdout, cfg.LogLevel),
		Metrics: NoOpScoreMetrics{},
		Tracer:  otel.Tracer(ServiceName),
	}

	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		obs.Registry = reg
		obs.Metrics = NewPrometheusScoreMetrics(reg)
	}

	return obs
}

// NewLogger returns a JSON logger writing to w at the named level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})).
		With(slog.String("service", ServiceName))
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
