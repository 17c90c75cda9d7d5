package scorehandlers

import "github.com/ThreeDotsLabs/watermill/message"

// Handlers interface defines the score ingestion handlers.
type Handlers interface {
	HandleScoreRecorded(msg *message.Message) ([]*message.Message, error)
	HandleSessionCompleted(msg *message.Message) ([]*message.Message, error)
}
