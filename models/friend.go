// models/friend.go
package models

import "time"

// FriendMirror is a local copy of accepted friendships owned by the social
// service, kept fresh by workers.PollFriends. Rows are directional — the feed
// emits both (a,b) and (b,a) for an accepted pair. Consumed only by the
// friends-scope leaderboard query.
type FriendMirror struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID   string `json:"user_id" gorm:"uniqueIndex:idx_friend_pair;not null"`
	FriendID string `json:"friend_id" gorm:"uniqueIndex:idx_friend_pair;not null"`

	SyncedAt  time.Time `json:"synced_at"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
