package scorehandlers

import (
	"context"
	"encoding/json"
	"log/slog"

	scoreservice "github.com/Black-And-White-Club/quizboard/app/modules/score/application"
	scoreevents "github.com/Black-And-White-Club/quizboard/app/modules/score/events"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ScoreHandlers turns ingestion messages into score service calls.
//
// Every handler acks its message, including on failure. Score increments are not
// idempotent, so a redelivered message would be counted twice.
type ScoreHandlers struct {
	service scoreservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewScoreHandlers creates a new ScoreHandlers.
func NewScoreHandlers(service scoreservice.Service, logger *slog.Logger, tracer trace.Tracer) *ScoreHandlers {
	return &ScoreHandlers{service: service, logger: logger, tracer: tracer}
}

var _ Handlers = (*ScoreHandlers)(nil)

// HandleScoreRecorded applies a single scoring event.
func (h *ScoreHandlers) HandleScoreRecorded(msg *message.Message) ([]*message.Message, error) {
	return handle(h, scoreevents.ScoreRecordedV1, msg, func(ctx context.Context, p *scoreevents.ScoreRecordedPayloadV1) error {
		return h.service.ApplyScore(ctx, p.Event())
	})
}

// HandleSessionCompleted applies a whole quiz session.
func (h *ScoreHandlers) HandleSessionCompleted(msg *message.Message) ([]*message.Message, error) {
	return handle(h, scoreevents.SessionCompletedV1, msg, func(ctx context.Context, p *scoreevents.SessionCompletedPayloadV1) error {
		return h.service.ApplyBatchScores(ctx, p.GroupID, p.Scores, p.Usernames)
	})
}

// handle decodes the payload, runs fn inside a span and logs the outcome. It never
// returns an error so the router never nacks.
func handle[T any](h *ScoreHandlers, handlerName string, msg *message.Message, fn func(ctx context.Context, payload *T) error) ([]*message.Message, error) {
	ctx, span := h.tracer.Start(msg.Context(), "score."+handlerName, trace.WithAttributes(
		attribute.String("message_id", msg.UUID),
	))
	defer span.End()

	correlationID := middleware.MessageCorrelationID(msg)
	logger := h.logger.With(
		slog.String("handler", handlerName),
		slog.String("message_id", msg.UUID),
		slog.String("correlation_id", correlationID),
	)

	payload := new(T)
	if err := json.Unmarshal(msg.Payload, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to unmarshal payload, dropping message", slog.Any("error", err))
		span.SetStatus(codes.Error, "unmarshal failed")
		return nil, nil
	}

	if err := fn(ctx, payload); err != nil {
		logger.ErrorContext(ctx, "Score message failed, not retrying", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil
	}

	logger.DebugContext(ctx, handlerName+" completed successfully")
	return nil, nil
}
