package scorehandlers

import (
	"context"
	"sync"

	scoreservice "github.com/Black-And-White-Club/quizboard/app/modules/score/application"
	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	scoredb "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories"
)

// FakeService is a programmable scoreservice.Service.
type FakeService struct {
	mu    sync.Mutex
	trace []string

	ApplyScoreFunc                  func(ctx context.Context, event scoredomain.ScoreEvent) error
	ApplyBatchScoresFunc            func(ctx context.Context, groupID scoredomain.GroupID, scores scoredomain.SessionScores, usernames map[scoredomain.UserID]string) error
	ResolveDeckIDsFunc              func(ctx context.Context, names []string) ([]scoredomain.DeckUniqueID, error)
	QueryLeaderboardFunc            func(groupID scoredomain.GroupID, deckIDs []scoredomain.DeckUniqueID) scoredb.LeaderboardQuery
	QueryLeaderboardByDeckNamesFunc func(ctx context.Context, groupID scoredomain.GroupID, deckNames []string) (scoredb.LeaderboardQuery, error)
	GetLeaderboardFunc              func(ctx context.Context, req scoreservice.LeaderboardRequest) (*scoreservice.Leaderboard, error)
	RegisterCustomDeckFunc          func(ctx context.Context, deck scoreservice.CustomDeckRegistration) error
}

func (f *FakeService) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeService) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeService) ApplyScore(ctx context.Context, event scoredomain.ScoreEvent) error {
	f.record("ApplyScore")
	if f.ApplyScoreFunc != nil {
		return f.ApplyScoreFunc(ctx, event)
	}
	return nil
}

func (f *FakeService) ApplyBatchScores(ctx context.Context, groupID scoredomain.GroupID, scores scoredomain.SessionScores, usernames map[scoredomain.UserID]string) error {
	f.record("ApplyBatchScores")
	if f.ApplyBatchScoresFunc != nil {
		return f.ApplyBatchScoresFunc(ctx, groupID, scores, usernames)
	}
	return nil
}

func (f *FakeService) ResolveDeckIDs(ctx context.Context, names []string) ([]scoredomain.DeckUniqueID, error) {
	f.record("ResolveDeckIDs")
	if f.ResolveDeckIDsFunc != nil {
		return f.ResolveDeckIDsFunc(ctx, names)
	}
	return nil, nil
}

func (f *FakeService) QueryLeaderboard(groupID scoredomain.GroupID, deckIDs []scoredomain.DeckUniqueID) scoredb.LeaderboardQuery {
	f.record("QueryLeaderboard")
	if f.QueryLeaderboardFunc != nil {
		return f.QueryLeaderboardFunc(groupID, deckIDs)
	}
	return nil
}

func (f *FakeService) QueryLeaderboardByDeckNames(ctx context.Context, groupID scoredomain.GroupID, deckNames []string) (scoredb.LeaderboardQuery, error) {
	f.record("QueryLeaderboardByDeckNames")
	if f.QueryLeaderboardByDeckNamesFunc != nil {
		return f.QueryLeaderboardByDeckNamesFunc(ctx, groupID, deckNames)
	}
	return nil, nil
}

func (f *FakeService) GetLeaderboard(ctx context.Context, req scoreservice.LeaderboardRequest) (*scoreservice.Leaderboard, error) {
	f.record("GetLeaderboard")
	if f.GetLeaderboardFunc != nil {
		return f.GetLeaderboardFunc(ctx, req)
	}
	return &scoreservice.Leaderboard{Entries: []scoreservice.LeaderboardEntry{}}, nil
}

func (f *FakeService) RegisterCustomDeck(ctx context.Context, deck scoreservice.CustomDeckRegistration) error {
	f.record("RegisterCustomDeck")
	if f.RegisterCustomDeckFunc != nil {
		return f.RegisterCustomDeckFunc(ctx, deck)
	}
	return nil
}

var _ scoreservice.Service = (*FakeService)(nil)
