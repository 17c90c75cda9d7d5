package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
)

// TestDataGenerator provides methods to create test data for integration tests
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Player is a generated quiz participant.
type Player struct {
	UserID   scoredomain.UserID
	Username string
}

// GeneratePlayers returns count players with distinct ids.
func (g *TestDataGenerator) GeneratePlayers(count int) []Player {
	players := make([]Player, count)
	for i := range players {
		players[i] = Player{
			UserID:   scoredomain.UserID(g.faker.Numerify("##################")),
			Username: g.faker.Username(),
		}
	}
	return players
}

// GenerateGroupID returns a random group id.
func (g *TestDataGenerator) GenerateGroupID() scoredomain.GroupID {
	return scoredomain.GroupID(g.faker.Numerify("guild-##########"))
}

// GenerateScoreEvents returns count events for the given players spread over decks.
// Every score is a whole number between 1 and 50 so totals are easy to predict.
func (g *TestDataGenerator) GenerateScoreEvents(players []Player, groupID scoredomain.GroupID, decks []scoredomain.DeckUniqueID, count int) []scoredomain.ScoreEvent {
	events := make([]scoredomain.ScoreEvent, count)
	for i := range events {
		p := players[g.faker.IntRange(0, len(players)-1)]
		events[i] = scoredomain.ScoreEvent{
			UserID:       p.UserID,
			GroupID:      groupID,
			DeckUniqueID: decks[g.faker.IntRange(0, len(decks)-1)],
			Score:        float64(g.faker.IntRange(1, 50)),
			Username:     p.Username,
		}
	}
	return events
}
