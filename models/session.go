// models/session.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SessionStatusPlaying   = "playing"
	SessionStatusSaved     = "saved"
	SessionStatusCompleted = "completed"
	SessionStatusAbandoned = "abandoned"
)

// GameSession is one attempt at playing a game. BoardState and SessionConfig
// are opaque documents owned by the game's client adapter — the hub stores
// exactly what it was given and returns exactly what it stored; it never
// branches on their contents and only ever replaces BoardState wholesale.
type GameSession struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID string `json:"user_id" gorm:"index:idx_sessions_user_game;not null"`
	GameID string `json:"game_id" gorm:"index:idx_sessions_user_game;not null"`

	Score           int64          `json:"score" gorm:"default:0"`
	PlayTimeSeconds int            `json:"play_time_seconds" gorm:"default:0"`
	BoardState      datatypes.JSON `json:"board_state"`
	SessionConfig   datatypes.JSON `json:"session_config"` // snapshot taken at Start, read-only after

	// Optional rendered image attached once the session is saved or finished
	// (drawing-canvas gallery thumbnails). Stored on R2, never read back here.
	SnapshotURL string `json:"snapshot_url,omitempty"`

	Status string `json:"status" gorm:"type:varchar(16);not null;default:'playing';index"`

	StartedAt time.Time `json:"started_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsTerminal reports whether the session reached a final state. A terminal
// session's mutable fields are frozen.
func (s *GameSession) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusAbandoned
}
