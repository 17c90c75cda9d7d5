package scoreservice

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
)

// fakeClock fires After channels only when Fire is called.
type fakeClock struct {
	requested chan time.Duration
	fire      chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{requested: make(chan time.Duration, 1), fire: make(chan time.Time)}
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.requested <- d
	return c.fire
}

func (c *fakeClock) Fire() { c.fire <- time.Now() }

// runnerFunc adapts a function to MigrationRunner.
type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestMigrationTask_StartRunsAfterDelay(t *testing.T) {
	var runs atomic.Int32
	clock := newFakeClock()
	task := NewMigrationTask(runnerFunc(func(context.Context) error {
		runs.Add(1)
		return nil
	}), 3*time.Second, clock, testLogger())

	task.Start(context.Background())
	task.Start(context.Background())

	if d := <-clock.requested; d != 3*time.Second {
		t.Errorf("delay = %v, want 3s", d)
	}
	select {
	case <-task.Done():
		t.Fatal("task completed before the delay elapsed")
	default:
	}

	clock.Fire()
	if err := task.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if runs.Load() != 1 {
		t.Errorf("runner called %d times, want 1", runs.Load())
	}
	if err := task.Run(context.Background()); !errors.Is(err, scoredomain.ErrMigrationAlreadyRan) {
		t.Errorf("second Run error = %v, want ErrMigrationAlreadyRan", err)
	}
}

func TestMigrationTask_ReportsFailure(t *testing.T) {
	fatal := &scoredomain.MigrationFatalError{Row: 3, Err: errors.New("bad row")}
	task := NewMigrationTask(runnerFunc(func(context.Context) error { return fatal }), 0, newFakeClock(), testLogger())

	if err := task.Run(context.Background()); !errors.Is(err, fatal) {
		t.Fatalf("Run error = %v", err)
	}
	<-task.Done()

	var got *scoredomain.MigrationFatalError
	if !errors.As(task.Err(), &got) || got.Row != 3 {
		t.Errorf("Err() = %v, want the fatal error", task.Err())
	}
	if err := task.Wait(waitCtx(t)); !errors.Is(err, fatal) {
		t.Errorf("Wait error = %v", err)
	}
}

func TestMigrationTask_CanceledBeforeDelay(t *testing.T) {
	var runs atomic.Int32
	clock := newFakeClock()
	task := NewMigrationTask(runnerFunc(func(context.Context) error {
		runs.Add(1)
		return nil
	}), time.Hour, clock, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	task.Start(ctx)
	<-clock.requested
	cancel()

	if err := task.Wait(waitCtx(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait error = %v, want context.Canceled", err)
	}
	if runs.Load() != 0 {
		t.Error("runner must not run after cancellation")
	}
	if err := task.Run(context.Background()); !errors.Is(err, scoredomain.ErrMigrationAlreadyRan) {
		t.Errorf("Run after cancellation = %v, want ErrMigrationAlreadyRan", err)
	}
}

func TestMigrationTask_WaitHonorsContext(t *testing.T) {
	task := NewMigrationTask(runnerFunc(func(context.Context) error { return nil }), time.Hour, newFakeClock(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := task.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait error = %v, want context.Canceled", err)
	}
	if task.Err() != nil {
		t.Errorf("Err() before completion = %v, want nil", task.Err())
	}
}
