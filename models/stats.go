// models/stats.go
package models

import (
	"time"
)

// UserGameStats is the denormalized running-statistics row, exactly one per
// (user, game). Counters only ever move through the single upsert statement in
// StatsService.Record — never through read-modify-write from application code.
type UserGameStats struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID string `json:"user_id" gorm:"uniqueIndex:idx_user_game_stats;not null"`
	GameID string `json:"game_id" gorm:"uniqueIndex:idx_user_game_stats;not null"`

	// high_score is a watermark (casual games), rank_points a cumulative sum
	// (competitive games). Each game category uses exactly one of the two.
	HighScore  int64 `json:"high_score" gorm:"default:0"`
	RankPoints int64 `json:"rank_points" gorm:"default:0"`

	TotalMatches int64 `json:"total_matches" gorm:"default:0"`
	TotalWins    int64 `json:"total_wins" gorm:"default:0"`

	// WinStreak resets to 0 on any non-win completion; BestWinStreak is a
	// watermark over WinStreak.
	WinStreak     int64 `json:"win_streak" gorm:"default:0"`
	BestWinStreak int64 `json:"best_win_streak" gorm:"default:0"`

	LastPlayedAt time.Time `json:"last_played_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
