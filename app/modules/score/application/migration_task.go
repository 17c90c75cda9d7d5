package scoreservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
)

// Clock schedules the delayed start of a MigrationTask.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// MigrationRunner is the work a MigrationTask performs.
type MigrationRunner interface {
	Run(ctx context.Context) error
}

// MigrationTask runs the legacy migration at most once and exposes its outcome.
type MigrationTask struct {
	runner MigrationRunner
	delay  time.Duration
	clock  Clock
	logger *slog.Logger

	mu      sync.Mutex
	claimed bool
	err     error

	startOnce sync.Once
	doneOnce  sync.Once
	done      chan struct{}
}

// NewMigrationTask creates a task that Start will run after delay. A nil clock uses
// the wall clock.
func NewMigrationTask(runner MigrationRunner, delay time.Duration, clock Clock, logger *slog.Logger) *MigrationTask {
	if clock == nil {
		clock = realClock{}
	}
	return &MigrationTask{
		runner: runner,
		delay:  delay,
		clock:  clock,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start schedules Run after the configured delay. Calling Start more than once has no
// further effect. If ctx ends before the delay elapses the task completes with ctx.Err().
func (t *MigrationTask) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		t.logger.InfoContext(ctx, "Legacy migration scheduled", slog.Duration("delay", t.delay))
		go func() {
			select {
			case <-ctx.Done():
				if t.claim() {
					t.finish(ctx.Err())
				}
			case <-t.clock.After(t.delay):
				_ = t.Run(ctx)
			}
		}()
	})
}

// Run executes the migration immediately. Only the first call does any work; later calls
// return scoredomain.ErrMigrationAlreadyRan.
func (t *MigrationTask) Run(ctx context.Context) error {
	if !t.claim() {
		return scoredomain.ErrMigrationAlreadyRan
	}

	err := t.runner.Run(ctx)
	if err != nil {
		t.logger.ErrorContext(ctx, "Legacy migration failed", slog.Any("error", err))
	}
	t.finish(err)
	return err
}

func (t *MigrationTask) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.claimed {
		return false
	}
	t.claimed = true
	return true
}

func (t *MigrationTask) finish(err error) {
	t.doneOnce.Do(func() {
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		close(t.done)
	})
}

// Done is closed once the task has completed.
func (t *MigrationTask) Done() <-chan struct{} { return t.done }

// Err returns the task's outcome. It is nil until Done is closed.
func (t *MigrationTask) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the task completes or ctx ends.
func (t *MigrationTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
