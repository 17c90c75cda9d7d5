package scoredb

import (
	"context"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/uptrace/bun"
)

// Repository defines the contract for score aggregate persistence.
// Every Increment* method is a single atomic upsert-with-increment against one record;
// there is no cross-record transaction unless the caller passes a bun.Tx as db.
// A nil db uses the repository's own connection.
type Repository interface {
	// IncrementGlobalTotal adds delta to the user's global total and records the username.
	IncrementGlobalTotal(ctx context.Context, db bun.IDB, userID scoredomain.UserID, delta int64, username string) error

	// IncrementGroupTotal adds delta to the user's total within groupID.
	IncrementGroupTotal(ctx context.Context, db bun.IDB, userID scoredomain.UserID, groupID scoredomain.GroupID, delta int64, username string) error

	// IncrementGlobalDeck adds delta to the user's score on deckID across all groups.
	IncrementGlobalDeck(ctx context.Context, db bun.IDB, userID scoredomain.UserID, deckID scoredomain.DeckUniqueID, delta int64, username string) error

	// IncrementGroupDeck adds delta to the user's score on deckID within groupID.
	IncrementGroupDeck(ctx context.Context, db bun.IDB, userID scoredomain.UserID, groupID scoredomain.GroupID, deckID scoredomain.DeckUniqueID, delta int64, username string) error

	// TruncateAggregates deletes every row of the four aggregate tables.
	TruncateAggregates(ctx context.Context, db bun.IDB) error

	// GetCustomDeckUniqueID returns the unique id of the custom deck with the given short name.
	// Returns ErrNotFound when no such deck exists.
	GetCustomDeckUniqueID(ctx context.Context, db bun.IDB, shortName string) (scoredomain.DeckUniqueID, error)

	// SaveCustomDeck creates or replaces the custom deck registered under deck.ShortName.
	SaveCustomDeck(ctx context.Context, db bun.IDB, deck *CustomDeck) error

	// LeaderboardQuery selects the leaderboard strategy for the given scope and deck filter.
	LeaderboardQuery(groupID scoredomain.GroupID, deckIDs []scoredomain.DeckUniqueID) LeaderboardQuery
}
