package scoredb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/uptrace/bun"
)

// Impl implements Repository on top of bun.
type Impl struct {
	db  bun.IDB
	now func() time.Time
}

// NewRepository creates a new score repository.
func NewRepository(db bun.IDB) *Impl {
	return &Impl{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

var _ Repository = (*Impl)(nil)

func (r *Impl) conn(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// upsertIncrement inserts model or, when a row with the same key exists, adds the
// model's score to it. The increment happens inside the database so concurrent
// callers never lose an update.
func (r *Impl) upsertIncrement(ctx context.Context, db bun.IDB, model any, conflict string) error {
	_, err := r.conn(db).NewInsert().
		Model(model).
		On("CONFLICT (" + conflict + ") DO UPDATE").
		Set("score = ?TableAlias.score + EXCLUDED.score").
		Set("last_known_username = EXCLUDED.last_known_username").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// IncrementGlobalTotal adds delta to the user's global total.
func (r *Impl) IncrementGlobalTotal(ctx context.Context, db bun.IDB, userID scoredomain.UserID, delta int64, username string) error {
	row := &UserGlobalTotalScore{
		UserID:            userID,
		Score:             delta,
		LastKnownUsername: username,
		UpdatedAt:         r.now(),
	}
	if err := r.upsertIncrement(ctx, db, row, "user_id"); err != nil {
		return fmt.Errorf("scoredb.IncrementGlobalTotal: %w", err)
	}
	return nil
}

// IncrementGroupTotal adds delta to the user's total within a group.
func (r *Impl) IncrementGroupTotal(ctx context.Context, db bun.IDB, userID scoredomain.UserID, groupID scoredomain.GroupID, delta int64, username string) error {
	row := &UserGroupTotalScore{
		UserID:            userID,
		GroupID:           groupID,
		Score:             delta,
		LastKnownUsername: username,
		UpdatedAt:         r.now(),
	}
	if err := r.upsertIncrement(ctx, db, row, "user_id, group_id"); err != nil {
		return fmt.Errorf("scoredb.IncrementGroupTotal: %w", err)
	}
	return nil
}

// IncrementGlobalDeck adds delta to the user's score on a deck.
func (r *Impl) IncrementGlobalDeck(ctx context.Context, db bun.IDB, userID scoredomain.UserID, deckID scoredomain.DeckUniqueID, delta int64, username string) error {
	row := &UserGlobalDeckScore{
		UserID:            userID,
		DeckUniqueID:      deckID,
		Score:             delta,
		LastKnownUsername: username,
		UpdatedAt:         r.now(),
	}
	if err := r.upsertIncrement(ctx, db, row, "user_id, deck_unique_id"); err != nil {
		return fmt.Errorf("scoredb.IncrementGlobalDeck: %w", err)
	}
	return nil
}

// IncrementGroupDeck adds delta to the user's score on a deck within a group.
func (r *Impl) IncrementGroupDeck(ctx context.Context, db bun.IDB, userID scoredomain.UserID, groupID scoredomain.GroupID, deckID scoredomain.DeckUniqueID, delta int64, username string) error {
	row := &UserGroupDeckScore{
		UserID:            userID,
		GroupID:           groupID,
		DeckUniqueID:      deckID,
		Score:             delta,
		LastKnownUsername: username,
		UpdatedAt:         r.now(),
	}
	if err := r.upsertIncrement(ctx, db, row, "user_id, group_id, deck_unique_id"); err != nil {
		return fmt.Errorf("scoredb.IncrementGroupDeck: %w", err)
	}
	return nil
}

// TruncateAggregates empties all four aggregate tables in a single statement.
func (r *Impl) TruncateAggregates(ctx context.Context, db bun.IDB) error {
	_, err := r.conn(db).NewRaw(
		"TRUNCATE TABLE ?, ?, ?, ?",
		bun.Ident("user_global_total_scores"),
		bun.Ident("user_group_total_scores"),
		bun.Ident("user_global_deck_scores"),
		bun.Ident("user_group_deck_scores"),
	).Exec(ctx)
	if err != nil {
		return fmt.Errorf("scoredb.TruncateAggregates: %w", err)
	}
	return nil
}

// GetCustomDeckUniqueID looks a custom deck up by short name.
func (r *Impl) GetCustomDeckUniqueID(ctx context.Context, db bun.IDB, shortName string) (scoredomain.DeckUniqueID, error) {
	var uniqueID scoredomain.DeckUniqueID
	err := r.conn(db).NewSelect().
		Model((*CustomDeck)(nil)).
		Column("unique_id").
		Where("short_name = ?", shortName).
		Limit(1).
		Scan(ctx, &uniqueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("scoredb.GetCustomDeckUniqueID: %w", err)
	}
	return uniqueID, nil
}

// SaveCustomDeck creates or replaces a custom deck keyed by short name.
func (r *Impl) SaveCustomDeck(ctx context.Context, db bun.IDB, deck *CustomDeck) error {
	_, err := r.conn(db).NewInsert().
		Model(deck).
		On("CONFLICT (short_name) DO UPDATE").
		Set("unique_id = EXCLUDED.unique_id").
		Set("name = EXCLUDED.name").
		Set("owner_id = EXCLUDED.owner_id").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("scoredb.SaveCustomDeck: %w", err)
	}
	return nil
}

// LeaderboardQuery selects the strategy matching the scope and deck filter.
func (r *Impl) LeaderboardQuery(groupID scoredomain.GroupID, deckIDs []scoredomain.DeckUniqueID) LeaderboardQuery {
	return NewLeaderboardQuery(r.db, groupID, deckIDs)
}
