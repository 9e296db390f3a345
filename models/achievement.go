// models/achievement.go
package models

import (
	"time"
)

// AchievementUnlock records that a user earned a badge. The composite unique
// index on (user_id, code) is the only thing guarding against double unlocks —
// concurrent completions race on the insert and the loser is dropped.
type AchievementUnlock struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID string `json:"user_id" gorm:"uniqueIndex:idx_unlock_user_code;not null"`
	Code   string `json:"code" gorm:"uniqueIndex:idx_unlock_user_code;not null"`

	// GameID is the game whose completion triggered the unlock. Nullable so a
	// future platform-wide award can omit it.
	GameID *string `json:"game_id,omitempty" gorm:"index"`

	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlocked_at" gorm:"autoCreateTime"`
}

// AchievementRule is static in-process configuration, not stored per-user.
// The Predicate runs against the just-updated stats row of the game whose
// session completed. GameSlug restricts a rule to one game; empty matches any.
type AchievementRule struct {
	Code        string
	Name        string
	Description string
	GameSlug    string
	Predicate   func(stats *UserGameStats) bool
}

// AchievementRules is the full rule set, fixed at build time and evaluated by
// iteration after every completion.
var AchievementRules = []AchievementRule{
	{
		Code:        "FIRST_PLAY",
		Name:        "Getting Started",
		Description: "Finish your first game",
		Predicate:   func(s *UserGameStats) bool { return s.TotalMatches >= 1 },
	},
	{
		Code:        "FIRST_WIN",
		Name:        "First Victory",
		Description: "Win a game",
		Predicate:   func(s *UserGameStats) bool { return s.TotalWins >= 1 },
	},
	{
		Code:        "SEASONED_10",
		Name:        "Regular",
		Description: "Finish 10 games of the same type",
		Predicate:   func(s *UserGameStats) bool { return s.TotalMatches >= 10 },
	},
	{
		Code:        "VETERAN_50",
		Name:        "Veteran",
		Description: "Finish 50 games of the same type",
		Predicate:   func(s *UserGameStats) bool { return s.TotalMatches >= 50 },
	},
	{
		Code:        "ON_FIRE",
		Name:        "On Fire",
		Description: "Win 3 games in a row",
		Predicate:   func(s *UserGameStats) bool { return s.WinStreak >= 3 },
	},
	{
		Code:        "UNSTOPPABLE",
		Name:        "Unstoppable",
		Description: "Reach a 10-game win streak",
		Predicate:   func(s *UserGameStats) bool { return s.BestWinStreak >= 10 },
	},
	{
		Code:        "GOMOKU_MASTER",
		Name:        "Gomoku Master",
		Description: "Win 10 Gomoku games",
		GameSlug:    "gomoku",
		Predicate:   func(s *UserGameStats) bool { return s.TotalWins >= 10 },
	},
	{
		Code:        "HIGH_ROLLER",
		Name:        "High Roller",
		Description: "Accumulate 1000 rank points",
		GameSlug:    "gomoku",
		Predicate:   func(s *UserGameStats) bool { return s.RankPoints >= 1000 },
	},
	{
		Code:        "SNAKE_CHARMER",
		Name:        "Snake Charmer",
		Description: "Score 300 or more in a Snake run",
		GameSlug:    "snake",
		Predicate:   func(s *UserGameStats) bool { return s.HighScore >= 300 },
	},
	{
		Code:        "MEMORY_ACE",
		Name:        "Memory Ace",
		Description: "Win 5 memory-pairs games",
		GameSlug:    "memory-pairs",
		Predicate:   func(s *UserGameStats) bool { return s.TotalWins >= 5 },
	},
}
