package legacy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ScoreRow is one entry of the historical score log.
type ScoreRow struct {
	UserID   string  `json:"userId"`
	ServerID string  `json:"serverId"`
	DeckID   *DeckID `json:"deckId,omitempty"`
	Score    float64 `json:"score"`
}

// DeckID accepts both string and numeric deck ids. Older rows stored numbers.
type DeckID string

func (d *DeckID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = DeckID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("deckId must be a string or number: %w", err)
	}
	*d = DeckID(n.String())
	return nil
}

// UsernameMap maps user ids to their last recorded username.
type UsernameMap map[string]string
