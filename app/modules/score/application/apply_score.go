package scoreservice

import (
	"context"
	"math"
	"strconv"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// recordUpdate is one upsert-with-increment against a single aggregate record.
type recordUpdate struct {
	table string
	apply func(ctx context.Context, db bun.IDB) error
}

// ApplyScore folds one scoring event into the running totals.
//
// A score that truncates to zero is a no-op and is not validated. Otherwise the deck
// records are always incremented and the total records are incremented unless the deck
// is shiritori. Concurrent record updates are not rolled back when one of them fails.
func (s *ScoreService) ApplyScore(ctx context.Context, event scoredomain.ScoreEvent) error {
	if math.IsNaN(event.Score) || math.IsInf(event.Score, 0) {
		return &scoredomain.ValidationError{Field: "score", Value: strconv.FormatFloat(event.Score, 'g', -1, 64), Err: scoredomain.ErrInvalidScore}
	}
	delta := scoredomain.TruncateScore(event.Score)
	if delta == 0 {
		return nil
	}
	if err := validateEvent(event.UserID, event.GroupID, event.DeckUniqueID, delta); err != nil {
		return err
	}

	_, err := withTelemetry(s, ctx, "ApplyScore", []attribute.KeyValue{
		attribute.String("user_id", event.UserID.String()),
		attribute.String("group_id", event.GroupID.String()),
		attribute.String("deck_unique_id", event.DeckUniqueID.String()),
		attribute.Int64("delta", delta),
	}, func(ctx context.Context) (struct{}, error) {
		username := usernameOrDefault(event.Username)

		updates := s.deckUpdates(event.UserID, event.GroupID, event.DeckUniqueID, delta, username)
		if event.DeckUniqueID.CountsTowardTotal() {
			updates = append(updates, s.totalUpdates(event.UserID, event.GroupID, delta, username)...)
		}
		return struct{}{}, s.applyUpdates(ctx, "ApplyScore", updates)
	})
	return err
}

func validateEvent(userID scoredomain.UserID, groupID scoredomain.GroupID, deckID scoredomain.DeckUniqueID, delta int64) error {
	if !scoredomain.ValidIdentifier(userID.String()) {
		return &scoredomain.ValidationError{Field: "user_id", Value: userID.String()}
	}
	if !groupID.IsZero() && !scoredomain.ValidIdentifier(groupID.String()) {
		return &scoredomain.ValidationError{Field: "group_id", Value: groupID.String()}
	}
	if !scoredomain.ValidIdentifier(deckID.String()) {
		return &scoredomain.ValidationError{Field: "deck_unique_id", Value: deckID.String()}
	}
	if delta < 0 {
		return &scoredomain.ValidationError{Field: "score", Value: strconv.FormatInt(delta, 10), Err: scoredomain.ErrInvalidScore}
	}
	return nil
}

func usernameOrDefault(username string) string {
	if username == "" {
		return scoredomain.UnknownUsername
	}
	return username
}

// deckUpdates returns the global deck update and, when a group is present, the group
// deck update.
func (s *ScoreService) deckUpdates(userID scoredomain.UserID, groupID scoredomain.GroupID, deckID scoredomain.DeckUniqueID, delta int64, username string) []recordUpdate {
	updates := []recordUpdate{{
		table: "user_global_deck_scores",
		apply: func(ctx context.Context, db bun.IDB) error {
			return s.repo.IncrementGlobalDeck(ctx, db, userID, deckID, delta, username)
		},
	}}
	if !groupID.IsZero() {
		updates = append(updates, recordUpdate{
			table: "user_group_deck_scores",
			apply: func(ctx context.Context, db bun.IDB) error {
				return s.repo.IncrementGroupDeck(ctx, db, userID, groupID, deckID, delta, username)
			},
		})
	}
	return updates
}

// totalUpdates returns the global total update and, when a group is present, the group
// total update.
func (s *ScoreService) totalUpdates(userID scoredomain.UserID, groupID scoredomain.GroupID, delta int64, username string) []recordUpdate {
	updates := []recordUpdate{{
		table: "user_global_total_scores",
		apply: func(ctx context.Context, db bun.IDB) error {
			return s.repo.IncrementGlobalTotal(ctx, db, userID, delta, username)
		},
	}}
	if !groupID.IsZero() {
		updates = append(updates, recordUpdate{
			table: "user_group_total_scores",
			apply: func(ctx context.Context, db bun.IDB) error {
				return s.repo.IncrementGroupTotal(ctx, db, userID, groupID, delta, username)
			},
		})
	}
	return updates
}

// applyUpdates runs every update and waits for all of them. Without transactional updates
// they run concurrently and a failure leaves the successful ones in place.
func (s *ScoreService) applyUpdates(ctx context.Context, op string, updates []recordUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	var err error
	if s.transactional {
		err = s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
			for _, u := range updates {
				if err := u.apply(ctx, db); err != nil {
					return err
				}
			}
			return nil
		})
	} else {
		var g errgroup.Group
		for _, u := range updates {
			g.Go(func() error { return u.apply(ctx, nil) })
		}
		err = g.Wait()
	}
	if err != nil {
		return &scoredomain.AggregateError{Op: op, Err: err}
	}

	for _, u := range updates {
		s.metrics.RecordRecordIncrement(ctx, u.table)
	}
	return nil
}
