package scoreservice

import (
	"context"
	"math"
	"strconv"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"go.opentelemetry.io/otel/attribute"
)

// ApplyBatchScores folds a whole quiz session into the running totals.
//
// Each deck entry increments that user's deck records. The user's non-shiritori deck
// scores are summed first and the sum is applied as one total increment, so a user who
// scored on several decks touches each total record once. Every upsert truncates its own
// delta and is skipped when it truncates to zero.
func (s *ScoreService) ApplyBatchScores(
	ctx context.Context,
	groupID scoredomain.GroupID,
	scores scoredomain.SessionScores,
	usernames map[scoredomain.UserID]string,
) error {
	if !groupID.IsZero() && !scoredomain.ValidIdentifier(groupID.String()) {
		return &scoredomain.ValidationError{Field: "group_id", Value: groupID.String()}
	}

	var updates []recordUpdate
	for userID, perDeck := range scores {
		if !scoredomain.ValidIdentifier(userID.String()) {
			return &scoredomain.ValidationError{Field: "user_id", Value: userID.String()}
		}
		username := usernameOrDefault(usernames[userID])

		var sessionTotal float64
		for deckID, raw := range perDeck {
			if !scoredomain.ValidIdentifier(deckID.String()) {
				return &scoredomain.ValidationError{Field: "deck_unique_id", Value: deckID.String()}
			}
			delta := scoredomain.TruncateScore(raw)
			if math.IsNaN(raw) || math.IsInf(raw, 0) || delta < 0 {
				return &scoredomain.ValidationError{Field: "score", Value: strconv.FormatFloat(raw, 'g', -1, 64), Err: scoredomain.ErrInvalidScore}
			}
			// (-1, 0) truncates to zero and contributes nothing.
			if raw < 0 {
				continue
			}

			if deckID.CountsTowardTotal() {
				sessionTotal += raw
			}
			if delta != 0 {
				updates = append(updates, s.deckUpdates(userID, groupID, deckID, delta, username)...)
			}
		}

		if delta := scoredomain.TruncateScore(sessionTotal); delta != 0 {
			updates = append(updates, s.totalUpdates(userID, groupID, delta, username)...)
		}
	}

	if len(updates) == 0 {
		return nil
	}

	_, err := withTelemetry(s, ctx, "ApplyBatchScores", []attribute.KeyValue{
		attribute.String("group_id", groupID.String()),
		attribute.Int("users", len(scores)),
		attribute.Int("record_updates", len(updates)),
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.applyUpdates(ctx, "ApplyBatchScores", updates)
	})
	return err
}
