package scoreservice

import (
	"context"
	"strings"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	scoredb "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// LeaderboardRequest selects a scope, an optional deck filter and a page.
type LeaderboardRequest struct {
	GroupID   scoredomain.GroupID
	DeckNames []string
	// Start is inclusive and End exclusive, both zero-based ranks.
	Start int
	End   int
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank     int                `json:"rank"`
	UserID   scoredomain.UserID `json:"user_id"`
	Username string             `json:"username"`
	Score    int64              `json:"score"`
}

// Leaderboard is one page of a leaderboard plus the view-wide figures.
type Leaderboard struct {
	Users      int                `json:"users"`
	TotalScore int64              `json:"total_score"`
	Entries    []LeaderboardEntry `json:"entries"`
}

// QueryLeaderboard selects the strategy for the scope and deck filter. Duplicate deck
// ids are ignored.
func (s *ScoreService) QueryLeaderboard(groupID scoredomain.GroupID, deckIDs []scoredomain.DeckUniqueID) scoredb.LeaderboardQuery {
	return s.repo.LeaderboardQuery(groupID, deckIDs)
}

// QueryLeaderboardByDeckNames resolves deckNames and selects the matching strategy.
// No names means no deck filter.
func (s *ScoreService) QueryLeaderboardByDeckNames(ctx context.Context, groupID scoredomain.GroupID, deckNames []string) (scoredb.LeaderboardQuery, error) {
	var deckIDs []scoredomain.DeckUniqueID
	if len(deckNames) > 0 {
		ids, err := s.ResolveDeckIDs(ctx, deckNames)
		if err != nil {
			return nil, err
		}
		deckIDs = ids
	}
	return s.QueryLeaderboard(groupID, deckIDs), nil
}

// GetLeaderboard resolves the deck filter and reads the count, the sum and the requested
// page concurrently.
func (s *ScoreService) GetLeaderboard(ctx context.Context, req LeaderboardRequest) (*Leaderboard, error) {
	return withTelemetry(s, ctx, "GetLeaderboard", []attribute.KeyValue{
		attribute.String("group_id", req.GroupID.String()),
		attribute.String("decks", strings.Join(req.DeckNames, ",")),
		attribute.Int("start", req.Start),
		attribute.Int("end", req.End),
	}, func(ctx context.Context) (*Leaderboard, error) {
		query, err := s.QueryLeaderboardByDeckNames(ctx, req.GroupID, req.DeckNames)
		if err != nil {
			return nil, err
		}

		var (
			users int
			total int64
			page  []scoredb.RankedEntry
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			users, err = query.CountDistinctUsers(gctx)
			return err
		})
		g.Go(func() (err error) {
			total, err = query.SumTotalScore(gctx)
			return err
		})
		g.Go(func() (err error) {
			page, err = query.RankedPage(gctx, req.Start, req.End)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		first := max(req.Start, 0) + 1
		entries := make([]LeaderboardEntry, len(page))
		for i, e := range page {
			entries[i] = LeaderboardEntry{
				Rank:     first + i,
				UserID:   e.UserID,
				Username: e.Username,
				Score:    e.Score,
			}
		}
		return &Leaderboard{Users: users, TotalScore: total, Entries: entries}, nil
	})
}
