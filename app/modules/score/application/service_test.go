package scoreservice

import (
	"context"
	"io"
	"log/slog"
	"testing"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/catalog"
	"github.com/Black-And-White-Club/quizboard/app/observability"
	"go.opentelemetry.io/otel/trace/noop"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog() *catalog.Catalog {
	return catalog.New(map[string]scoredomain.DeckUniqueID{
		"JLPT1":    "jlpt1_vocab",
		"JLPT2":    "jlpt2_vocab",
		"Hiragana": "hiragana",
	})
}

func newTestService(repo *FakeScoreRepository) *ScoreService {
	return NewScoreService(
		repo,
		testCatalog(),
		testLogger(),
		observability.NoOpScoreMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		nil,
		false,
	)
}

func TestNewScoreService_TransactionalRequiresDB(t *testing.T) {
	s := NewScoreService(NewFakeScoreRepository(), nil, testLogger(), observability.NoOpScoreMetrics{},
		noop.NewTracerProvider().Tracer("test"), nil, true)
	if s.transactional {
		t.Fatal("transactional updates must be disabled without a database")
	}
	if s.resolver == nil {
		t.Fatal("expected resolver")
	}
}

func TestWithTelemetry_RecoversPanic(t *testing.T) {
	s := newTestService(NewFakeScoreRepository())
	got, err := withTelemetry(s, t.Context(), "Boom", nil, func(ctx context.Context) (int, error) {
		panic("kaboom")
	})
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	if got != 0 {
		t.Errorf("expected zero result, got %d", got)
	}
}
