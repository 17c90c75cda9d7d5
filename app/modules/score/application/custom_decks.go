package scoreservice

import (
	"context"
	"strings"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	scoredb "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories"
	"go.opentelemetry.io/otel/attribute"
)

// CustomDeckRegistration describes a user-authored deck.
type CustomDeckRegistration struct {
	ShortName string
	UniqueID  scoredomain.DeckUniqueID
	Name      string
	OwnerID   scoredomain.UserID
}

// RegisterCustomDeck stores a custom deck under its lower-cased short name, replacing any
// deck previously registered under that name.
func (s *ScoreService) RegisterCustomDeck(ctx context.Context, deck CustomDeckRegistration) error {
	shortName := strings.ToLower(deck.ShortName)
	if !scoredomain.ValidIdentifier(shortName) {
		return &scoredomain.ValidationError{Field: "short_name", Value: deck.ShortName}
	}
	if !scoredomain.ValidIdentifier(deck.UniqueID.String()) {
		return &scoredomain.ValidationError{Field: "unique_id", Value: deck.UniqueID.String()}
	}

	_, err := withTelemetry(s, ctx, "RegisterCustomDeck", []attribute.KeyValue{
		attribute.String("short_name", shortName),
		attribute.String("unique_id", deck.UniqueID.String()),
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.SaveCustomDeck(ctx, nil, &scoredb.CustomDeck{
			ShortName: shortName,
			UniqueID:  deck.UniqueID,
			Name:      deck.Name,
			OwnerID:   deck.OwnerID,
		})
	})
	return err
}
