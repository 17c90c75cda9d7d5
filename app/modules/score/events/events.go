// Package scoreevents defines the score ingestion topics and payloads.
package scoreevents

import (
	"encoding/json"
	"fmt"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
)

const (
	// ScoreRecordedV1 carries a single completed scoring event.
	ScoreRecordedV1 = "quiz.score.recorded.v1"
	// SessionCompletedV1 carries every score earned during one quiz session.
	SessionCompletedV1 = "quiz.session.completed.v1"
)

// ScoreRecordedPayloadV1 is the payload of ScoreRecordedV1.
type ScoreRecordedPayloadV1 struct {
	UserID       scoredomain.UserID       `json:"user_id"`
	GroupID      scoredomain.GroupID      `json:"group_id,omitempty"`
	DeckUniqueID scoredomain.DeckUniqueID `json:"deck_unique_id"`
	Score        float64                  `json:"score"`
	Username     string                   `json:"username"`
}

// Event converts the payload to a domain event.
func (p ScoreRecordedPayloadV1) Event() scoredomain.ScoreEvent {
	return scoredomain.ScoreEvent{
		UserID:       p.UserID,
		GroupID:      p.GroupID,
		DeckUniqueID: p.DeckUniqueID,
		Score:        p.Score,
		Username:     p.Username,
	}
}

// SessionCompletedPayloadV1 is the payload of SessionCompletedV1.
type SessionCompletedPayloadV1 struct {
	GroupID   scoredomain.GroupID           `json:"group_id,omitempty"`
	Scores    scoredomain.SessionScores     `json:"scores"`
	Usernames map[scoredomain.UserID]string `json:"usernames"`
}

// NewMessage encodes payload as JSON in a message with a fresh id and correlation id.
func NewMessage(payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), data)
	middleware.SetCorrelationID(uuid.New().String(), msg)
	return msg, nil
}
