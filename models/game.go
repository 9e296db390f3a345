// models/game.go
package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	GameCategoryCompetitive = "competitive"
	GameCategoryCasual      = "casual"
)

// CompetitiveGameSlugs is the fixed allowlist of games whose scores accumulate
// into rank_points instead of being watermarked into high_score.
var CompetitiveGameSlugs = map[string]bool{
	"gomoku": true,
}

func IsCompetitiveGame(slug string) bool {
	return CompetitiveGameSlugs[slug]
}

// Game is a catalog entry for one playable mini-game. The hub never interprets
// DefaultConfig — it is handed to new sessions verbatim and each game's client
// adapter owns its shape (board size, rules, difficulty...).
type Game struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"` // e.g., "gomoku", "tic-tac-toe"
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`

	Category      string         `json:"category" gorm:"type:varchar(16);default:'casual'"` // competitive | casual
	DefaultConfig datatypes.JSON `json:"default_config"`

	// Admin toggle — inactive games reject new sessions but keep their history.
	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
