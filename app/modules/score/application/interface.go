package scoreservice

import (
	"context"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	scoredb "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories"
)

// Service defines the score aggregation and leaderboard operations.
type Service interface {
	// ApplyScore folds one scoring event into the up to four running totals it touches.
	ApplyScore(ctx context.Context, event scoredomain.ScoreEvent) error

	// ApplyBatchScores folds one quiz session's per-user, per-deck scores into the running
	// totals with a single total increment per user.
	ApplyBatchScores(ctx context.Context, groupID scoredomain.GroupID, scores scoredomain.SessionScores, usernames map[scoredomain.UserID]string) error

	// ResolveDeckIDs maps deck names to canonical ids, failing on the first unknown name.
	ResolveDeckIDs(ctx context.Context, names []string) ([]scoredomain.DeckUniqueID, error)

	// QueryLeaderboard selects the leaderboard strategy for a scope and deck filter.
	QueryLeaderboard(groupID scoredomain.GroupID, deckIDs []scoredomain.DeckUniqueID) scoredb.LeaderboardQuery

	// QueryLeaderboardByDeckNames resolves deck names and then selects a strategy.
	QueryLeaderboardByDeckNames(ctx context.Context, groupID scoredomain.GroupID, deckNames []string) (scoredb.LeaderboardQuery, error)

	// GetLeaderboard returns the user count, score sum and one ranked page.
	GetLeaderboard(ctx context.Context, req LeaderboardRequest) (*Leaderboard, error)

	// RegisterCustomDeck makes a user-authored deck resolvable by its short name.
	RegisterCustomDeck(ctx context.Context, deck CustomDeckRegistration) error
}
