package scoreservice

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/uptrace/bun"
)

func TestScoreService_ApplyScore(t *testing.T) {
	tests := []struct {
		name  string
		event scoredomain.ScoreEvent
		want  map[recordKey]aggregateRecord
	}{
		{
			name:  "group event touches all four records",
			event: scoredomain.ScoreEvent{UserID: "u1", GroupID: "g1", DeckUniqueID: "jlpt1_vocab", Score: 12.9, Username: "alice"},
			want: map[recordKey]aggregateRecord{
				{Table: tableGlobalDeck, User: "u1", Deck: "jlpt1_vocab"}:              {Score: 12, Username: "alice"},
				{Table: tableGroupDeck, User: "u1", Group: "g1", Deck: "jlpt1_vocab"}: {Score: 12, Username: "alice"},
				{Table: tableGlobalTotal, User: "u1"}:                                  {Score: 12, Username: "alice"},
				{Table: tableGroupTotal, User: "u1", Group: "g1"}:                      {Score: 12, Username: "alice"},
			},
		},
		{
			name:  "no group touches only global records",
			event: scoredomain.ScoreEvent{UserID: "u1", DeckUniqueID: "hiragana", Score: 3, Username: "alice"},
			want: map[recordKey]aggregateRecord{
				{Table: tableGlobalDeck, User: "u1", Deck: "hiragana"}: {Score: 3, Username: "alice"},
				{Table: tableGlobalTotal, User: "u1"}:                  {Score: 3, Username: "alice"},
			},
		},
		{
			name:  "shiritori skips totals",
			event: scoredomain.ScoreEvent{UserID: "u1", GroupID: "g1", DeckUniqueID: scoredomain.ShiritoriDeckID, Score: 7, Username: "alice"},
			want: map[recordKey]aggregateRecord{
				{Table: tableGlobalDeck, User: "u1", Deck: scoredomain.ShiritoriDeckID}:              {Score: 7, Username: "alice"},
				{Table: tableGroupDeck, User: "u1", Group: "g1", Deck: scoredomain.ShiritoriDeckID}: {Score: 7, Username: "alice"},
			},
		},
		{
			name:  "missing username falls back",
			event: scoredomain.ScoreEvent{UserID: "u1", DeckUniqueID: "hiragana", Score: 1},
			want: map[recordKey]aggregateRecord{
				{Table: tableGlobalDeck, User: "u1", Deck: "hiragana"}: {Score: 1, Username: scoredomain.UnknownUsername},
				{Table: tableGlobalTotal, User: "u1"}:                  {Score: 1, Username: scoredomain.UnknownUsername},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeScoreRepository()
			s := newTestService(repo)

			if err := s.ApplyScore(context.Background(), tt.event); err != nil {
				t.Fatalf("ApplyScore returned error: %v", err)
			}
			if diff := cmp.Diff(tt.want, repo.Records()); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScoreService_ApplyScore_SumsConcurrentDeltas(t *testing.T) {
	repo := NewFakeScoreRepository()
	s := newTestService(repo)

	deltas := []float64{5, 17, 1, 250, 3.7, 42, 8, 99.99}
	var want int64
	for _, d := range deltas {
		want += scoredomain.TruncateScore(d)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(deltas))
	for _, d := range deltas {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.ApplyScore(context.Background(), scoredomain.ScoreEvent{
				UserID: "u1", GroupID: "g1", DeckUniqueID: "jlpt1_vocab", Score: d, Username: "alice",
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("ApplyScore returned error: %v", err)
		}
	}

	got, _ := repo.Record(recordKey{Table: tableGlobalDeck, User: "u1", Deck: "jlpt1_vocab"})
	if got.Score != want {
		t.Errorf("global deck score = %d, want %d", got.Score, want)
	}
	total, _ := repo.Record(recordKey{Table: tableGlobalTotal, User: "u1"})
	if total.Score != want {
		t.Errorf("global total = %d, want %d", total.Score, want)
	}
}

func TestScoreService_ApplyScore_ZeroDeltaIsNoOp(t *testing.T) {
	repo := NewFakeScoreRepository()
	s := newTestService(repo)
	ctx := context.Background()

	if err := s.ApplyScore(ctx, scoredomain.ScoreEvent{UserID: "u1", GroupID: "g1", DeckUniqueID: "hiragana", Score: 10, Username: "alice"}); err != nil {
		t.Fatalf("seed ApplyScore: %v", err)
	}
	before := repo.Records()
	calls := len(repo.Trace())

	for _, score := range []float64{0, 0.4, 0.999, -0.5} {
		err := s.ApplyScore(ctx, scoredomain.ScoreEvent{UserID: "u1", GroupID: "g1", DeckUniqueID: "hiragana", Score: score, Username: "renamed"})
		if err != nil {
			t.Fatalf("ApplyScore(%v) returned error: %v", score, err)
		}
	}
	// Malformed identifiers are not validated when there is nothing to apply.
	if err := s.ApplyScore(ctx, scoredomain.ScoreEvent{Score: 0.2}); err != nil {
		t.Fatalf("zero delta with empty ids returned error: %v", err)
	}

	if diff := cmp.Diff(before, repo.Records()); diff != "" {
		t.Errorf("records changed (-before +after):\n%s", diff)
	}
	if len(repo.Trace()) != calls {
		t.Errorf("repository called %d more times", len(repo.Trace())-calls)
	}
}

func TestScoreService_ApplyScore_ShiritoriNeverChangesTotals(t *testing.T) {
	repo := NewFakeScoreRepository()
	s := newTestService(repo)
	ctx := context.Background()

	if err := s.ApplyScore(ctx, scoredomain.ScoreEvent{UserID: "u1", GroupID: "g1", DeckUniqueID: "hiragana", Score: 20, Username: "a"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := s.ApplyScore(ctx, scoredomain.ScoreEvent{UserID: "u1", GroupID: "g1", DeckUniqueID: scoredomain.ShiritoriDeckID, Score: 4, Username: "a"}); err != nil {
			t.Fatal(err)
		}
	}

	total, _ := repo.Record(recordKey{Table: tableGlobalTotal, User: "u1"})
	groupTotal, _ := repo.Record(recordKey{Table: tableGroupTotal, User: "u1", Group: "g1"})
	deck, _ := repo.Record(recordKey{Table: tableGroupDeck, User: "u1", Group: "g1", Deck: scoredomain.ShiritoriDeckID})
	if total.Score != 20 || groupTotal.Score != 20 {
		t.Errorf("totals = (%d, %d), want (20, 20)", total.Score, groupTotal.Score)
	}
	if deck.Score != 20 {
		t.Errorf("shiritori group deck score = %d, want 20", deck.Score)
	}
}

func TestScoreService_ApplyScore_Validation(t *testing.T) {
	tests := []struct {
		name      string
		event     scoredomain.ScoreEvent
		wantField string
	}{
		{name: "empty user", event: scoredomain.ScoreEvent{DeckUniqueID: "d", Score: 1}, wantField: "user_id"},
		{name: "padded user", event: scoredomain.ScoreEvent{UserID: " u1", DeckUniqueID: "d", Score: 1}, wantField: "user_id"},
		{name: "blank group", event: scoredomain.ScoreEvent{UserID: "u1", GroupID: " ", DeckUniqueID: "d", Score: 1}, wantField: "group_id"},
		{name: "empty deck", event: scoredomain.ScoreEvent{UserID: "u1", Score: 1}, wantField: "deck_unique_id"},
		{name: "negative score", event: scoredomain.ScoreEvent{UserID: "u1", DeckUniqueID: "d", Score: -3}, wantField: "score"},
		{name: "NaN score", event: scoredomain.ScoreEvent{UserID: "u1", DeckUniqueID: "d", Score: math.NaN()}, wantField: "score"},
		{name: "infinite score", event: scoredomain.ScoreEvent{UserID: "u1", DeckUniqueID: "d", Score: math.Inf(1)}, wantField: "score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeScoreRepository()
			err := newTestService(repo).ApplyScore(context.Background(), tt.event)

			var verr *scoredomain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
			if len(repo.Trace()) != 0 {
				t.Errorf("repository must not be called, got %v", repo.Trace())
			}
		})
	}
}

func TestScoreService_ApplyScore_PartialFailureIsNotRolledBack(t *testing.T) {
	repo := NewFakeScoreRepository()
	boom := errors.New("write conflict")
	repo.IncrementGlobalTotalFunc = func(context.Context, bun.IDB, scoredomain.UserID, int64, string) error {
		return boom
	}
	s := newTestService(repo)

	err := s.ApplyScore(context.Background(), scoredomain.ScoreEvent{UserID: "u1", GroupID: "g1", DeckUniqueID: "hiragana", Score: 9, Username: "a"})

	var aggErr *scoredomain.AggregateError
	if !errors.As(err, &aggErr) {
		t.Fatalf("error = %v, want AggregateError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected AggregateError to wrap the store error")
	}

	// Every update was dispatched and the ones that succeeded stay applied.
	if got := len(repo.Trace()); got != 4 {
		t.Errorf("dispatched %d updates, want 4", got)
	}
	if _, ok := repo.Record(recordKey{Table: tableGlobalTotal, User: "u1"}); ok {
		t.Error("failed record must not exist")
	}
	for _, key := range []recordKey{
		{Table: tableGlobalDeck, User: "u1", Deck: "hiragana"},
		{Table: tableGroupDeck, User: "u1", Group: "g1", Deck: "hiragana"},
		{Table: tableGroupTotal, User: "u1", Group: "g1"},
	} {
		if r, ok := repo.Record(key); !ok || r.Score != 9 {
			t.Errorf("record %+v = (%+v, %v), want score 9", key, r, ok)
		}
	}
}

func TestScoreService_ApplyScore_UsernameAlwaysOverwritten(t *testing.T) {
	repo := NewFakeScoreRepository()
	s := newTestService(repo)
	ctx := context.Background()

	for _, name := range []string{"old", "new"} {
		if err := s.ApplyScore(ctx, scoredomain.ScoreEvent{UserID: "u1", DeckUniqueID: "hiragana", Score: 1, Username: name}); err != nil {
			t.Fatal(err)
		}
	}
	for key, r := range repo.Records() {
		if r.Username != "new" {
			t.Errorf("%+v username = %q, want new", key, r.Username)
		}
	}
}
