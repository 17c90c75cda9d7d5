package scoredb

import (
	"time"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/uptrace/bun"
)

// UserGlobalTotalScore is a user's running total across every group and deck,
// excluding shiritori.
type UserGlobalTotalScore struct {
	bun.BaseModel `bun:"table:user_global_total_scores,alias:ugt"`

	UserID            scoredomain.UserID `bun:"user_id,pk"`
	Score             int64              `bun:"score,notnull,default:0"`
	LastKnownUsername string             `bun:"last_known_username,notnull,default:''"`
	UpdatedAt         time.Time          `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// UserGroupTotalScore is a user's running total within one group.
type UserGroupTotalScore struct {
	bun.BaseModel `bun:"table:user_group_total_scores,alias:ugrt"`

	UserID            scoredomain.UserID  `bun:"user_id,pk"`
	GroupID           scoredomain.GroupID `bun:"group_id,pk"`
	Score             int64               `bun:"score,notnull,default:0"`
	LastKnownUsername string              `bun:"last_known_username,notnull,default:''"`
	UpdatedAt         time.Time           `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// UserGlobalDeckScore is a user's running total on one deck across every group.
type UserGlobalDeckScore struct {
	bun.BaseModel `bun:"table:user_global_deck_scores,alias:ugd"`

	UserID            scoredomain.UserID       `bun:"user_id,pk"`
	DeckUniqueID      scoredomain.DeckUniqueID `bun:"deck_unique_id,pk"`
	Score             int64                    `bun:"score,notnull,default:0"`
	LastKnownUsername string                   `bun:"last_known_username,notnull,default:''"`
	UpdatedAt         time.Time                `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// UserGroupDeckScore is a user's running total on one deck within one group.
type UserGroupDeckScore struct {
	bun.BaseModel `bun:"table:user_group_deck_scores,alias:ugrd"`

	UserID            scoredomain.UserID       `bun:"user_id,pk"`
	GroupID           scoredomain.GroupID      `bun:"group_id,pk"`
	DeckUniqueID      scoredomain.DeckUniqueID `bun:"deck_unique_id,pk"`
	Score             int64                    `bun:"score,notnull,default:0"`
	LastKnownUsername string                   `bun:"last_known_username,notnull,default:''"`
	UpdatedAt         time.Time                `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// CustomDeck is a user-authored deck addressable by its short name.
type CustomDeck struct {
	bun.BaseModel `bun:"table:custom_decks,alias:cd"`

	ID        int64                    `bun:"id,pk,autoincrement"`
	ShortName string                   `bun:"short_name,notnull,unique"`
	UniqueID  scoredomain.DeckUniqueID `bun:"unique_id,notnull,unique"`
	Name      string                   `bun:"name"`
	OwnerID   scoredomain.UserID       `bun:"owner_id"`
	CreatedAt time.Time                `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// RankedEntry is one row of a leaderboard page.
type RankedEntry struct {
	UserID   scoredomain.UserID `bun:"user_id" json:"user_id"`
	Username string             `bun:"last_known_username" json:"username"`
	Score    int64              `bun:"score" json:"score"`
}
