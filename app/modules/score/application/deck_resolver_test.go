package scoreservice

import (
	"context"
	"errors"
	"testing"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	scoredb "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories"
	"github.com/Black-And-White-Club/quizboard/app/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/uptrace/bun"
)

func TestDeckResolver_Resolve(t *testing.T) {
	repo := NewFakeScoreRepository()
	repo.decks["mydeck"] = &scoredb.CustomDeck{ShortName: "mydeck", UniqueID: "custom-123"}
	r := NewDeckResolver(testCatalog(), repo, observability.NoOpScoreMetrics{})

	tests := []struct {
		name      string
		input     string
		want      scoredomain.DeckUniqueID
		wantQuery bool
	}{
		{name: "catalog lower", input: "jlpt1", want: "jlpt1_vocab"},
		{name: "catalog title", input: "Jlpt1", want: "jlpt1_vocab"},
		{name: "catalog upper", input: "JLPT1", want: "jlpt1_vocab"},
		{name: "canonical id", input: "jlpt2_vocab", want: "jlpt2_vocab"},
		{name: "canonical id any case", input: "JLPT2_VOCAB", want: "jlpt2_vocab"},
		{name: "shiritori", input: "Shiritori", want: scoredomain.ShiritoriDeckID},
		{name: "custom deck", input: "MyDeck", want: "custom-123", wantQuery: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(repo.Trace())
			got, err := r.Resolve(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.input, got, tt.want)
			}
			queried := len(repo.Trace()) > before
			if queried != tt.wantQuery {
				t.Errorf("custom deck store queried = %v, want %v", queried, tt.wantQuery)
			}
		})
	}
}

func TestDeckResolver_Resolve_CustomDeckLookupUsesLowerCase(t *testing.T) {
	repo := NewFakeScoreRepository()
	var gotShortName string
	repo.GetCustomDeckUniqueIDFunc = func(ctx context.Context, db bun.IDB, shortName string) (scoredomain.DeckUniqueID, error) {
		gotShortName = shortName
		return "x", nil
	}
	r := NewDeckResolver(testCatalog(), repo, observability.NoOpScoreMetrics{})

	if _, err := r.Resolve(context.Background(), "SomeDeck"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotShortName != "somedeck" {
		t.Errorf("short name = %q, want somedeck", gotShortName)
	}
}

func TestDeckResolver_Resolve_NotFound(t *testing.T) {
	r := NewDeckResolver(testCatalog(), NewFakeScoreRepository(), observability.NoOpScoreMetrics{})

	for _, name := range []string{"not_a_real_deck", "Not_A_Real_Deck", ""} {
		_, err := r.Resolve(context.Background(), name)
		var notFound *scoredomain.DeckNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("Resolve(%q) error = %v, want DeckNotFoundError", name, err)
		}
		if notFound.Name != name {
			t.Errorf("DeckNotFoundError.Name = %q, want %q", notFound.Name, name)
		}
	}
}

func TestDeckResolver_Resolve_StoreError(t *testing.T) {
	repo := NewFakeScoreRepository()
	storeErr := errors.New("connection reset")
	repo.GetCustomDeckUniqueIDFunc = func(context.Context, bun.IDB, string) (scoredomain.DeckUniqueID, error) {
		return "", storeErr
	}
	r := NewDeckResolver(testCatalog(), repo, observability.NoOpScoreMetrics{})

	_, err := r.Resolve(context.Background(), "unknown")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	var notFound *scoredomain.DeckNotFoundError
	if errors.As(err, &notFound) {
		t.Fatal("store failures must not be reported as DeckNotFound")
	}
}

func TestScoreService_ResolveDeckIDs(t *testing.T) {
	repo := NewFakeScoreRepository()
	repo.decks["mine"] = &scoredb.CustomDeck{ShortName: "mine", UniqueID: "custom-1"}
	s := newTestService(repo)

	t.Run("case insensitive and ordered", func(t *testing.T) {
		got, err := s.ResolveDeckIDs(context.Background(), []string{"Jlpt1", "jlpt1", "JLPT1", "mine", "hiragana"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []scoredomain.DeckUniqueID{"jlpt1_vocab", "jlpt1_vocab", "jlpt1_vocab", "custom-1", "hiragana"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ids mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("one unknown name fails the batch", func(t *testing.T) {
		got, err := s.ResolveDeckIDs(context.Background(), []string{"jlpt1", "not_a_real_deck", "hiragana"})
		if got != nil {
			t.Errorf("expected no partial result, got %v", got)
		}
		var notFound *scoredomain.DeckNotFoundError
		if !errors.As(err, &notFound) || notFound.Name != "not_a_real_deck" {
			t.Fatalf("error = %v, want DeckNotFound for not_a_real_deck", err)
		}
	})

	t.Run("single unknown name", func(t *testing.T) {
		_, err := s.ResolveDeckIDs(context.Background(), []string{"not_a_real_deck"})
		var notFound *scoredomain.DeckNotFoundError
		if !errors.As(err, &notFound) || notFound.Name != "not_a_real_deck" {
			t.Fatalf("error = %v, want DeckNotFound for not_a_real_deck", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := s.ResolveDeckIDs(context.Background(), nil)
		if err != nil || len(got) != 0 {
			t.Fatalf("ResolveDeckIDs(nil) = (%v, %v)", got, err)
		}
	})
}
