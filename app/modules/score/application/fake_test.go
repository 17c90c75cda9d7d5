package scoreservice

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/legacy"
	scoredb "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Score Repo
// ------------------------

// recordKey addresses one aggregate record. Unused dimensions are empty.
type recordKey struct {
	Table string
	User  scoredomain.UserID
	Group scoredomain.GroupID
	Deck  scoredomain.DeckUniqueID
}

const (
	tableGlobalTotal = "user_global_total_scores"
	tableGroupTotal  = "user_group_total_scores"
	tableGlobalDeck  = "user_global_deck_scores"
	tableGroupDeck   = "user_group_deck_scores"
)

// aggregateRecord mirrors one aggregate row.
type aggregateRecord struct {
	Score    int64
	Username string
}

// FakeScoreRepository keeps aggregates in memory with increment semantics. The *Func
// fields run before the default behavior; a non-nil error skips the write.
type FakeScoreRepository struct {
	mu      sync.Mutex
	trace   []string
	records map[recordKey]aggregateRecord
	decks   map[string]*scoredb.CustomDeck

	IncrementGlobalTotalFunc  func(ctx context.Context, db bun.IDB, userID scoredomain.UserID, delta int64, username string) error
	IncrementGroupTotalFunc   func(ctx context.Context, db bun.IDB, userID scoredomain.UserID, groupID scoredomain.GroupID, delta int64, username string) error
	IncrementGlobalDeckFunc   func(ctx context.Context, db bun.IDB, userID scoredomain.UserID, deckID scoredomain.DeckUniqueID, delta int64, username string) error
	IncrementGroupDeckFunc    func(ctx context.Context, db bun.IDB, userID scoredomain.UserID, groupID scoredomain.GroupID, deckID scoredomain.DeckUniqueID, delta int64, username string) error
	TruncateAggregatesFunc    func(ctx context.Context, db bun.IDB) error
	GetCustomDeckUniqueIDFunc func(ctx context.Context, db bun.IDB, shortName string) (scoredomain.DeckUniqueID, error)
	SaveCustomDeckFunc        func(ctx context.Context, db bun.IDB, deck *scoredb.CustomDeck) error
	LeaderboardQueryFunc      func(groupID scoredomain.GroupID, deckIDs []scoredomain.DeckUniqueID) scoredb.LeaderboardQuery
}

// NewFakeScoreRepository initializes an empty FakeScoreRepository.
func NewFakeScoreRepository() *FakeScoreRepository {
	return &FakeScoreRepository{
		trace:   []string{},
		records: map[recordKey]aggregateRecord{},
		decks:   map[string]*scoredb.CustomDeck{},
	}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeScoreRepository) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Records returns a copy of every stored aggregate.
func (f *FakeScoreRepository) Records() map[recordKey]aggregateRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[recordKey]aggregateRecord, len(f.records))
	for k, v := range f.records {
		out[k] = v
	}
	return out
}

// Record returns one aggregate and whether it exists.
func (f *FakeScoreRepository) Record(key recordKey) (aggregateRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[key]
	return r, ok
}

func (f *FakeScoreRepository) record(step string) {
	f.mu.Lock()
	f.trace = append(f.trace, step)
	f.mu.Unlock()
}

func (f *FakeScoreRepository) increment(key recordKey, delta int64, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.records[key]
	r.Score += delta
	r.Username = username
	f.records[key] = r
}

// --- Repository Interface Implementation ---

func (f *FakeScoreRepository) IncrementGlobalTotal(ctx context.Context, db bun.IDB, userID scoredomain.UserID, delta int64, username string) error {
	f.record("IncrementGlobalTotal")
	if f.IncrementGlobalTotalFunc != nil {
		if err := f.IncrementGlobalTotalFunc(ctx, db, userID, delta, username); err != nil {
			return err
		}
	}
	f.increment(recordKey{Table: tableGlobalTotal, User: userID}, delta, username)
	return nil
}

func (f *FakeScoreRepository) IncrementGroupTotal(ctx context.Context, db bun.IDB, userID scoredomain.UserID, groupID scoredomain.GroupID, delta int64, username string) error {
	f.record("IncrementGroupTotal")
	if f.IncrementGroupTotalFunc != nil {
		if err := f.IncrementGroupTotalFunc(ctx, db, userID, groupID, delta, username); err != nil {
			return err
		}
	}
	f.increment(recordKey{Table: tableGroupTotal, User: userID, Group: groupID}, delta, username)
	return nil
}

func (f *FakeScoreRepository) IncrementGlobalDeck(ctx context.Context, db bun.IDB, userID scoredomain.UserID, deckID scoredomain.DeckUniqueID, delta int64, username string) error {
	f.record("IncrementGlobalDeck")
	if f.IncrementGlobalDeckFunc != nil {
		if err := f.IncrementGlobalDeckFunc(ctx, db, userID, deckID, delta, username); err != nil {
			return err
		}
	}
	f.increment(recordKey{Table: tableGlobalDeck, User: userID, Deck: deckID}, delta, username)
	return nil
}

func (f *FakeScoreRepository) IncrementGroupDeck(ctx context.Context, db bun.IDB, userID scoredomain.UserID, groupID scoredomain.GroupID, deckID scoredomain.DeckUniqueID, delta int64, username string) error {
	f.record("IncrementGroupDeck")
	if f.IncrementGroupDeckFunc != nil {
		if err := f.IncrementGroupDeckFunc(ctx, db, userID, groupID, deckID, delta, username); err != nil {
			return err
		}
	}
	f.increment(recordKey{Table: tableGroupDeck, User: userID, Group: groupID, Deck: deckID}, delta, username)
	return nil
}

func (f *FakeScoreRepository) TruncateAggregates(ctx context.Context, db bun.IDB) error {
	f.record("TruncateAggregates")
	if f.TruncateAggregatesFunc != nil {
		if err := f.TruncateAggregatesFunc(ctx, db); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.records = map[recordKey]aggregateRecord{}
	f.mu.Unlock()
	return nil
}

func (f *FakeScoreRepository) GetCustomDeckUniqueID(ctx context.Context, db bun.IDB, shortName string) (scoredomain.DeckUniqueID, error) {
	f.record("GetCustomDeckUniqueID")
	if f.GetCustomDeckUniqueIDFunc != nil {
		return f.GetCustomDeckUniqueIDFunc(ctx, db, shortName)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.decks[shortName]; ok {
		return d.UniqueID, nil
	}
	return "", scoredb.ErrNotFound
}

func (f *FakeScoreRepository) SaveCustomDeck(ctx context.Context, db bun.IDB, deck *scoredb.CustomDeck) error {
	f.record("SaveCustomDeck")
	if f.SaveCustomDeckFunc != nil {
		if err := f.SaveCustomDeckFunc(ctx, db, deck); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *deck
	f.decks[deck.ShortName] = &stored
	return nil
}

func (f *FakeScoreRepository) LeaderboardQuery(groupID scoredomain.GroupID, deckIDs []scoredomain.DeckUniqueID) scoredb.LeaderboardQuery {
	f.record("LeaderboardQuery")
	if f.LeaderboardQueryFunc != nil {
		return f.LeaderboardQueryFunc(groupID, deckIDs)
	}
	return &FakeLeaderboardQuery{}
}

// Ensure the fake actually satisfies the interface
var _ scoredb.Repository = (*FakeScoreRepository)(nil)

// ------------------------
// Fake Leaderboard Query
// ------------------------

// FakeLeaderboardQuery returns fixed figures and slices Entries like the real strategies.
type FakeLeaderboardQuery struct {
	Users   int
	Total   int64
	Entries []scoredb.RankedEntry
	Err     error
}

func (q *FakeLeaderboardQuery) CountDistinctUsers(context.Context) (int, error) {
	return q.Users, q.Err
}

func (q *FakeLeaderboardQuery) SumTotalScore(context.Context) (int64, error) {
	return q.Total, q.Err
}

func (q *FakeLeaderboardQuery) RankedPage(_ context.Context, start, end int) ([]scoredb.RankedEntry, error) {
	if q.Err != nil {
		return nil, q.Err
	}
	sorted := append([]scoredb.RankedEntry(nil), q.Entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].UserID < sorted[j].UserID
	})
	start = max(start, 0)
	if end <= start || start >= len(sorted) {
		return []scoredb.RankedEntry{}, nil
	}
	return sorted[start:min(end, len(sorted))], nil
}

var _ scoredb.LeaderboardQuery = (*FakeLeaderboardQuery)(nil)

// ------------------------
// Fake Legacy Store
// ------------------------

// FakeLegacyStore serves JSON documents by key.
type FakeLegacyStore struct {
	Docs       map[string]string
	GetDataErr error
}

func (s *FakeLegacyStore) GetData(_ context.Context, key string, dst any) (bool, error) {
	if s.GetDataErr != nil {
		return false, s.GetDataErr
	}
	doc, ok := s.Docs[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(doc), dst)
}

var _ legacy.Store = (*FakeLegacyStore)(nil)
