package scorequeue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	scoreservice "github.com/Black-And-White-Club/quizboard/app/modules/score/application"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// Service schedules and runs legacy replay jobs on River so that only one replica
// performs the rebuild.
type Service struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService connects a pgx pool, applies River's schema and registers the replay worker.
func NewService(ctx context.Context, dsn string, runner scoreservice.MigrationRunner, logger *slog.Logger) (*Service, error) {
	logger = logger.With(slog.String("component", "river_queue"))

	// River requires pgx, not database/sql
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewLegacyReplayWorker(runner, logger))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueMigration: {MaxWorkers: 1},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	logger.InfoContext(ctx, "Score queue service initialized")
	return &Service{client: client, pool: pool, logger: logger}, nil
}

// Migrate brings River's own tables up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to migrate River schema: %w", err)
	}
	return nil
}

// Start starts working jobs.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Score queue service started")
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Score queue service stopped")
	return nil
}

// ScheduleLegacyReplay inserts a replay job that fires after delay. Scheduling the same
// requester again within the unique period is a no-op.
func (s *Service) ScheduleLegacyReplay(ctx context.Context, requestedBy string, delay time.Duration) (*JobInfo, error) {
	scheduledAt := time.Now().Add(delay)

	opts := LegacyReplayJob{}.InsertOpts()
	opts.ScheduledAt = scheduledAt

	res, err := s.client.Insert(ctx, LegacyReplayJob{RequestedBy: requestedBy}, &opts)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to schedule legacy replay", slog.Any("error", err))
		return nil, fmt.Errorf("failed to schedule legacy replay: %w", err)
	}

	info := &JobInfo{
		ID:          res.Job.ID,
		State:       string(res.Job.State),
		RequestedBy: requestedBy,
		ScheduledAt: res.Job.ScheduledAt.Format(time.RFC3339),
		Attempt:     res.Job.Attempt,
		MaxAttempts: res.Job.MaxAttempts,
	}

	if res.UniqueSkippedAsDuplicate {
		s.logger.InfoContext(ctx, "Legacy replay already scheduled", slog.Int64("job_id", info.ID))
	} else {
		s.logger.InfoContext(ctx, "Legacy replay scheduled",
			slog.Int64("job_id", info.ID),
			slog.Time("scheduled_at", scheduledAt),
		)
	}
	return info, nil
}
