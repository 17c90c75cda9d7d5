package scorequeue

import (
	"context"
	"errors"
	"log/slog"

	scoreservice "github.com/Black-And-White-Club/quizboard/app/modules/score/application"
	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/riverqueue/river"
)

// LegacyReplayWorker runs the legacy migration when its job fires.
type LegacyReplayWorker struct {
	river.WorkerDefaults[LegacyReplayJob]
	runner scoreservice.MigrationRunner
	logger *slog.Logger
}

func NewLegacyReplayWorker(runner scoreservice.MigrationRunner, logger *slog.Logger) *LegacyReplayWorker {
	return &LegacyReplayWorker{runner: runner, logger: logger}
}

// Work cancels the job on failure so River never schedules another attempt.
func (w *LegacyReplayWorker) Work(ctx context.Context, job *river.Job[LegacyReplayJob]) error {
	logger := w.logger.With(
		slog.Int64("job_id", job.ID),
		slog.String("requested_by", job.Args.RequestedBy),
	)
	logger.InfoContext(ctx, "Legacy replay job started")

	err := w.runner.Run(ctx)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "Legacy replay job completed")
		return nil
	case errors.Is(err, scoredomain.ErrMigrationAlreadyRan):
		logger.WarnContext(ctx, "Legacy replay already ran in this process, skipping")
		return river.JobCancel(err)
	default:
		logger.ErrorContext(ctx, "Legacy replay job failed", slog.Any("error", err))
		return river.JobCancel(err)
	}
}
