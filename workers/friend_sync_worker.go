// workers/friend_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"game-hub-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendSyncClient mirrors accepted friendships from the social service into
// the local friend_mirrors table. The friends-scope leaderboard reads only the
// mirror — this service never calls the social service on the request path.
type FriendSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewFriendSyncClient(db *gorm.DB) *FriendSyncClient {
	baseURL := os.Getenv("SOCIAL_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("SOCIAL_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("HUB_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("HUB_SERVICE_TOKEN environment variable is required for friend sync")
	}

	return &FriendSyncClient{
		BaseURL: baseURL,
		Token:   token,
		DB:      db,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetChangedFriendships fetches accepted friendships changed since the given
// time. The feed emits directional rows — both (a,b) and (b,a) for a pair.
func (c *FriendSyncClient) GetChangedFriendships(ctx context.Context, since time.Time) ([]models.FriendMirror, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/public/friendships", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("status", "accepted")
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call social service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("social service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Friendships []struct {
			UserID   string `json:"user_id"`
			FriendID string `json:"friend_id"`
		} `json:"friendships"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode social service response: %w", err)
	}

	now := time.Now().UTC()
	mirrors := make([]models.FriendMirror, 0, len(response.Friendships))
	for _, f := range response.Friendships {
		if f.UserID == "" || f.FriendID == "" {
			continue
		}
		mirrors = append(mirrors, models.FriendMirror{
			ID:       uuid.NewString(),
			UserID:   f.UserID,
			FriendID: f.FriendID,
			SyncedAt: now,
		})
	}
	return mirrors, nil
}

// PollFriends keeps the mirror fresh until ctx is cancelled.
func PollFriends(ctx context.Context, client *FriendSyncClient, pollInterval time.Duration) {
	log.Println("Starting friendship polling (DB-backed)...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Friendship polling stopped.")
			return
		case <-ticker.C:
			tickTime := time.Now().UTC()

			friendships, err := client.GetChangedFriendships(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling friendships: %v", err)
				continue
			}

			count := len(friendships)
			if count == 0 {
				continue
			}

			// Batch upsert — one statement, conflict on the (user, friend)
			// pair so re-fetched windows stay idempotent.
			if err := client.DB.Clauses(
				clause.OnConflict{
					Columns: []clause.Column{{Name: "user_id"}, {Name: "friend_id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"synced_at",
						"updated_at",
					}),
				},
			).Create(&friendships).Error; err != nil {
				log.Printf("❌ Failed to upsert %d friendship(s) into friend_mirrors: %v", count, err)
				// Do NOT advance lastSyncTime on failure — retry same window next tick
				continue
			}

			lastSyncTime = tickTime
			log.Printf("✅ Upserted %d friendship(s) into friend_mirrors table.", count)
		}
	}
}
