package scoreservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/catalog"
	scoredb "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories"
	"github.com/Black-And-White-Club/quizboard/app/observability"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ScoreService implements the Service interface.
type ScoreService struct {
	repo     scoredb.Repository
	resolver *DeckResolver
	logger   *slog.Logger
	metrics  observability.ScoreMetrics
	tracer   trace.Tracer
	db       *bun.DB

	// transactional runs the record updates of one call inside a single transaction
	// instead of as concurrent independent upserts. Requires db.
	transactional bool
}

// NewScoreService creates a new ScoreService. db may be nil, in which case updates are
// never transactional.
func NewScoreService(
	repo scoredb.Repository,
	decks *catalog.Catalog,
	logger *slog.Logger,
	metrics observability.ScoreMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	transactional bool,
) *ScoreService {
	return &ScoreService{
		repo:          repo,
		resolver:      NewDeckResolver(decks, repo, metrics),
		logger:        logger,
		metrics:       metrics,
		tracer:        tracer,
		db:            db,
		transactional: transactional && db != nil,
	}
}

var _ Service = (*ScoreService)(nil)

// operationFunc is the signature of a wrapped service operation.
type operationFunc[T any] func(ctx context.Context) (T, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[T any](
	s *ScoreService,
	ctx context.Context,
	operationName string,
	attrs []attribute.KeyValue,
	op operationFunc[T],
) (result T, err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		append([]attribute.KeyValue{attribute.String("operation", operationName)}, attrs...)...,
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	s.logger.DebugContext(ctx, operationName+" triggered", slog.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.String("operation", operationName),
				slog.Any("error", err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName)
			span.RecordError(err)
			var zero T
			result = zero
		}
	}()

	result, err = op(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Operation failed with error",
			slog.String("operation", operationName),
			slog.Any("error", err),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
		span.RecordError(err)
		return result, err
	}

	s.metrics.RecordOperationSuccess(ctx, operationName)
	return result, nil
}

// runInTx runs fn inside a transaction when transactional updates are enabled, and
// with the repository's own connection otherwise.
func (s *ScoreService) runInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if !s.transactional {
		return fn(ctx, nil)
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
