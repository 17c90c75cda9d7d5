package scorerouter

import (
	"context"
	"log/slog"
	"os"

	scoreevents "github.com/Black-And-White-Club/quizboard/app/modules/score/events"
	scorehandlers "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/handlers"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// ScoreRouter subscribes the score handlers to the ingestion topics.
type ScoreRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber message.Subscriber

	metricsBuilder *metrics.PrometheusMetricsBuilder
	metricsEnabled bool
}

func NewScoreRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	registry *prometheus.Registry,
) *ScoreRouter {
	inTestEnv := os.Getenv(TestEnvironmentFlag) == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil && !inTestEnv {
		b := metrics.NewPrometheusMetricsBuilder(registry, "", "")
		metricsBuilder = &b
	}

	return &ScoreRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		metricsBuilder: metricsBuilder,
		metricsEnabled: metricsBuilder != nil,
	}
}

func (r *ScoreRouter) Configure(_ context.Context, handlers scorehandlers.Handlers) error {
	if r.metricsEnabled && r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.registerHandlers(handlers)
	return nil
}

// registerHandler subscribes a consumer-only handler. Score handlers never publish.
func (r *ScoreRouter) registerHandler(topic string, handler message.HandlerFunc) {
	handlerName := "score." + topic

	r.Router.AddConsumerHandler(
		handlerName,
		topic,
		r.subscriber,
		func(msg *message.Message) error {
			_, err := handler(msg)
			return err
		},
	)
	r.logger.Info("Registered score handler", slog.String("handler", handlerName), slog.String("topic", topic))
}

func (r *ScoreRouter) registerHandlers(h scorehandlers.Handlers) {
	r.registerHandler(scoreevents.ScoreRecordedV1, h.HandleScoreRecorded)
	r.registerHandler(scoreevents.SessionCompletedV1, h.HandleSessionCompleted)
}

func (r *ScoreRouter) Close() error {
	return r.Router.Close()
}
