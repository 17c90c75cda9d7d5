package scoredb

import (
	"context"
	"fmt"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/uptrace/bun"
)

// LeaderboardQuery answers ranked leaderboard questions for one scope and deck filter.
type LeaderboardQuery interface {
	// CountDistinctUsers returns how many users have a score in this view.
	CountDistinctUsers(ctx context.Context) (int, error)

	// SumTotalScore returns the sum of every score in this view.
	SumTotalScore(ctx context.Context) (int64, error)

	// RankedPage returns entries [start, end) ordered by score descending, ties broken
	// by user id ascending. It never returns more than end-start entries.
	RankedPage(ctx context.Context, start, end int) ([]RankedEntry, error)
}

// NewLeaderboardQuery picks one of the four strategies. Whole-account totals are already
// one row per user and only need filtering; deck filters need per-user grouping because a
// user can have a score on more than one of the selected decks.
func NewLeaderboardQuery(db bun.IDB, groupID scoredomain.GroupID, deckIDs []scoredomain.DeckUniqueID) LeaderboardQuery {
	decks := uniqueDeckIDs(deckIDs)

	switch {
	case len(decks) == 0 && groupID.IsZero():
		return &GlobalTotalQuery{db: db}
	case len(decks) == 0:
		return &GroupTotalQuery{db: db, groupID: groupID}
	case groupID.IsZero():
		return &GlobalDeckQuery{db: db, deckIDs: decks}
	default:
		return &GroupDeckQuery{db: db, groupID: groupID, deckIDs: decks}
	}
}

func uniqueDeckIDs(ids []scoredomain.DeckUniqueID) []scoredomain.DeckUniqueID {
	seen := make(map[scoredomain.DeckUniqueID]struct{}, len(ids))
	out := make([]scoredomain.DeckUniqueID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// pageBounds converts [start, end) into offset and limit. ok is false when the page
// is empty and no query is needed.
func pageBounds(start, end int) (offset, limit int, ok bool) {
	if start < 0 {
		start = 0
	}
	if end <= start {
		return 0, 0, false
	}
	return start, end - start, true
}

const rankOrder = "score DESC, user_id ASC"

func scanCount(ctx context.Context, q *bun.SelectQuery, op string) (int, error) {
	var n int
	if err := q.Scan(ctx, &n); err != nil {
		return 0, fmt.Errorf("scoredb.%s: %w", op, err)
	}
	return n, nil
}

func scanSum(ctx context.Context, q *bun.SelectQuery, op string) (int64, error) {
	var total int64
	if err := q.Scan(ctx, &total); err != nil {
		return 0, fmt.Errorf("scoredb.%s: %w", op, err)
	}
	return total, nil
}

func scanPage(ctx context.Context, q *bun.SelectQuery, op string) ([]RankedEntry, error) {
	entries := []RankedEntry{}
	if err := q.Scan(ctx, &entries); err != nil {
		return nil, fmt.Errorf("scoredb.%s: %w", op, err)
	}
	return entries, nil
}

// --- Whole-account totals ---

// GlobalTotalQuery ranks users by their global total.
type GlobalTotalQuery struct {
	db bun.IDB
}

func (q *GlobalTotalQuery) base() *bun.SelectQuery {
	return q.db.NewSelect().Model((*UserGlobalTotalScore)(nil))
}

func (q *GlobalTotalQuery) countQuery() *bun.SelectQuery {
	return q.base().ColumnExpr("count(*)")
}

func (q *GlobalTotalQuery) sumQuery() *bun.SelectQuery {
	return q.base().ColumnExpr("COALESCE(SUM(score), 0)")
}

func (q *GlobalTotalQuery) pageQuery(offset, limit int) *bun.SelectQuery {
	return q.base().
		Column("user_id", "last_known_username", "score").
		OrderExpr(rankOrder).
		Offset(offset).
		Limit(limit)
}

func (q *GlobalTotalQuery) CountDistinctUsers(ctx context.Context) (int, error) {
	return scanCount(ctx, q.countQuery(), "GlobalTotalQuery.CountDistinctUsers")
}

func (q *GlobalTotalQuery) SumTotalScore(ctx context.Context) (int64, error) {
	return scanSum(ctx, q.sumQuery(), "GlobalTotalQuery.SumTotalScore")
}

func (q *GlobalTotalQuery) RankedPage(ctx context.Context, start, end int) ([]RankedEntry, error) {
	offset, limit, ok := pageBounds(start, end)
	if !ok {
		return []RankedEntry{}, nil
	}
	return scanPage(ctx, q.pageQuery(offset, limit), "GlobalTotalQuery.RankedPage")
}

// GroupTotalQuery ranks users by their total within one group. The table holds one
// row per (user, group), so this is a filtered scan.
type GroupTotalQuery struct {
	db      bun.IDB
	groupID scoredomain.GroupID
}

func (q *GroupTotalQuery) base() *bun.SelectQuery {
	return q.db.NewSelect().
		Model((*UserGroupTotalScore)(nil)).
		Where("group_id = ?", q.groupID)
}

func (q *GroupTotalQuery) countQuery() *bun.SelectQuery {
	return q.base().ColumnExpr("count(*)")
}

func (q *GroupTotalQuery) sumQuery() *bun.SelectQuery {
	return q.base().ColumnExpr("COALESCE(SUM(score), 0)")
}

func (q *GroupTotalQuery) pageQuery(offset, limit int) *bun.SelectQuery {
	return q.base().
		Column("user_id", "last_known_username", "score").
		OrderExpr(rankOrder).
		Offset(offset).
		Limit(limit)
}

func (q *GroupTotalQuery) CountDistinctUsers(ctx context.Context) (int, error) {
	return scanCount(ctx, q.countQuery(), "GroupTotalQuery.CountDistinctUsers")
}

func (q *GroupTotalQuery) SumTotalScore(ctx context.Context) (int64, error) {
	return scanSum(ctx, q.sumQuery(), "GroupTotalQuery.SumTotalScore")
}

func (q *GroupTotalQuery) RankedPage(ctx context.Context, start, end int) ([]RankedEntry, error) {
	offset, limit, ok := pageBounds(start, end)
	if !ok {
		return []RankedEntry{}, nil
	}
	return scanPage(ctx, q.pageQuery(offset, limit), "GroupTotalQuery.RankedPage")
}

// --- Deck-filtered views ---

// Grouped rows take the username of the most recently written row.
const latestUsernameExpr = "(array_agg(last_known_username ORDER BY updated_at DESC))[1] AS last_known_username"

// GlobalDeckQuery ranks users by their summed score across the selected decks.
type GlobalDeckQuery struct {
	db      bun.IDB
	deckIDs []scoredomain.DeckUniqueID
}

func (q *GlobalDeckQuery) base() *bun.SelectQuery {
	return q.db.NewSelect().
		Model((*UserGlobalDeckScore)(nil)).
		Where("deck_unique_id IN (?)", bun.In(q.deckIDs))
}

func (q *GlobalDeckQuery) countQuery() *bun.SelectQuery {
	return q.base().ColumnExpr("COUNT(DISTINCT user_id)")
}

func (q *GlobalDeckQuery) sumQuery() *bun.SelectQuery {
	return q.base().ColumnExpr("COALESCE(SUM(score), 0)")
}

func (q *GlobalDeckQuery) pageQuery(offset, limit int) *bun.SelectQuery {
	return q.base().
		Column("user_id").
		ColumnExpr("SUM(score) AS score").
		ColumnExpr(latestUsernameExpr).
		Group("user_id").
		OrderExpr(rankOrder).
		Offset(offset).
		Limit(limit)
}

func (q *GlobalDeckQuery) CountDistinctUsers(ctx context.Context) (int, error) {
	return scanCount(ctx, q.countQuery(), "GlobalDeckQuery.CountDistinctUsers")
}

func (q *GlobalDeckQuery) SumTotalScore(ctx context.Context) (int64, error) {
	return scanSum(ctx, q.sumQuery(), "GlobalDeckQuery.SumTotalScore")
}

func (q *GlobalDeckQuery) RankedPage(ctx context.Context, start, end int) ([]RankedEntry, error) {
	offset, limit, ok := pageBounds(start, end)
	if !ok {
		return []RankedEntry{}, nil
	}
	return scanPage(ctx, q.pageQuery(offset, limit), "GlobalDeckQuery.RankedPage")
}

// GroupDeckQuery ranks users of one group by their summed score across the selected decks.
type GroupDeckQuery struct {
	db      bun.IDB
	groupID scoredomain.GroupID
	deckIDs []scoredomain.DeckUniqueID
}

func (q *GroupDeckQuery) base() *bun.SelectQuery {
	return q.db.NewSelect().
		Model((*UserGroupDeckScore)(nil)).
		Where("group_id = ?", q.groupID).
		Where("deck_unique_id IN (?)", bun.In(q.deckIDs))
}

func (q *GroupDeckQuery) countQuery() *bun.SelectQuery {
	return q.base().ColumnExpr("COUNT(DISTINCT user_id)")
}

func (q *GroupDeckQuery) sumQuery() *bun.SelectQuery {
	return q.base().ColumnExpr("COALESCE(SUM(score), 0)")
}

func (q *GroupDeckQuery) pageQuery(offset, limit int) *bun.SelectQuery {
	return q.base().
		Column("user_id").
		ColumnExpr("SUM(score) AS score").
		ColumnExpr(latestUsernameExpr).
		Group("user_id").
		OrderExpr(rankOrder).
		Offset(offset).
		Limit(limit)
}

func (q *GroupDeckQuery) CountDistinctUsers(ctx context.Context) (int, error) {
	return scanCount(ctx, q.countQuery(), "GroupDeckQuery.CountDistinctUsers")
}

func (q *GroupDeckQuery) SumTotalScore(ctx context.Context) (int64, error) {
	return scanSum(ctx, q.sumQuery(), "GroupDeckQuery.SumTotalScore")
}

func (q *GroupDeckQuery) RankedPage(ctx context.Context, start, end int) ([]RankedEntry, error) {
	offset, limit, ok := pageBounds(start, end)
	if !ok {
		return []RankedEntry{}, nil
	}
	return scanPage(ctx, q.pageQuery(offset, limit), "GroupDeckQuery.RankedPage")
}
