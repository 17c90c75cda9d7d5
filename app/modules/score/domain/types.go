package scoredomain

import (
	"math"
	"strings"
)

// UserID identifies a player across every group.
type UserID string

// GroupID identifies a community (a chat server). The empty value means "no group".
type GroupID string

// DeckUniqueID is the canonical identifier of a quiz deck, distinct from its display name.
type DeckUniqueID string

const (
	// ShiritoriDeckID is the deck id of the built-in shiritori game mode. Its deck level
	// scores are tracked but never contribute to a user's total score.
	ShiritoriDeckID DeckUniqueID = "shiritori"

	// UnknownDeckID is assigned to legacy score rows that carry no deck.
	UnknownDeckID DeckUniqueID = "unknown_deck"

	// UnknownUsername is stored when no username is known for a user.
	UnknownUsername = "Unknown User"
)

func (id UserID) String() string       { return string(id) }
func (id GroupID) String() string      { return string(id) }
func (id DeckUniqueID) String() string { return string(id) }

// IsZero reports whether no group was supplied.
func (id GroupID) IsZero() bool { return id == "" }

// CountsTowardTotal reports whether scores earned on this deck are added to the
// whole-account total records.
func (id DeckUniqueID) CountsTowardTotal() bool { return id != ShiritoriDeckID }

// ScoreEvent is a single completed scoring event.
type ScoreEvent struct {
	UserID       UserID
	GroupID      GroupID
	DeckUniqueID DeckUniqueID
	Score        float64
	Username     string
}

// SessionScores maps each user to the score earned per deck during one quiz session.
type SessionScores map[UserID]map[DeckUniqueID]float64

// TruncateScore truncates a raw score toward zero. Non-finite values truncate to zero.
func TruncateScore(raw float64) int64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	return int64(math.Trunc(raw))
}

// ValidIdentifier reports whether s can be used as a user, group or deck key.
func ValidIdentifier(s string) bool {
	return s != "" && strings.TrimSpace(s) == s
}
