// services/achievement_service.go
package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"game-hub-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementService struct {
	DB *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{DB: db}
}

// EvaluateAfterCompletion runs every rule against the just-updated stats
// snapshot and unlocks the ones that newly qualify. Uniqueness is per
// (user, code) globally: a code already unlocked — for any game — is skipped
// up front, and the insert race between two concurrent completions is settled
// by the storage constraint, not by locking. Only rows this caller actually
// inserted are returned, so the duplicate-race loser never notifies twice.
func (s *AchievementService) EvaluateAfterCompletion(userID string, game *models.Game, stats *models.UserGameStats) ([]models.AchievementUnlock, error) {
	var unlockedCodes []string
	if err := s.DB.Model(&models.AchievementUnlock{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("code", &unlockedCodes).Error; err != nil {
		return nil, err
	}
	already := make(map[string]bool, len(unlockedCodes))
	for _, code := range unlockedCodes {
		already[code] = true
	}

	var newUnlocks []models.AchievementUnlock
	for _, rule := range models.AchievementRules {
		if already[rule.Code] {
			continue
		}
		if rule.GameSlug != "" && rule.GameSlug != game.Slug {
			continue
		}
		if !rule.Predicate(stats) {
			continue
		}

		gameID := game.ID
		unlock := models.AchievementUnlock{
			ID:          uuid.NewString(),
			UserID:      userID,
			GameID:      &gameID,
			Code:        rule.Code,
			Name:        rule.Name,
			Description: rule.Description,
			UnlockedAt:  time.Now(),
		}

		res := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "code"}},
			DoNothing: true,
		}).Create(&unlock)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// another concurrent completion unlocked it first
			continue
		}

		log.Printf("🎖️ Achievement unlocked: %s → %s", rule.Code, userID)
		newUnlocks = append(newUnlocks, unlock)
	}

	return newUnlocks, nil
}

// ListUnlocked returns the user's unlocks, newest first.
func (s *AchievementService) ListUnlocked(userID string) ([]models.AchievementUnlock, error) {
	var unlocks []models.AchievementUnlock
	err := s.DB.Where("user_id = ?", userID).Order("unlocked_at DESC").Find(&unlocks).Error
	return unlocks, err
}

// --- Fiber endpoints ---

// GetUserAchievements returns the authenticated user's unlocked achievements.
func (s *AchievementService) GetUserAchievements(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	unlocks, err := s.ListUnlocked(userID)
	if err != nil {
		log.Printf("DB error fetching achievements for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch achievements"})
	}
	return c.JSON(unlocks)
}

// GetAchievementCatalog returns every rule with the caller's unlock status, so
// clients can render locked badges greyed out.
func (s *AchievementService) GetAchievementCatalog(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	unlocks, err := s.ListUnlocked(userID)
	if err != nil {
		log.Printf("DB error fetching achievements for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch achievements"})
	}
	unlockedAt := make(map[string]time.Time, len(unlocks))
	for _, u := range unlocks {
		unlockedAt[u.Code] = u.UnlockedAt
	}

	type catalogEntry struct {
		Code        string     `json:"code"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
		GameSlug    string     `json:"game_slug,omitempty"`
		Unlocked    bool       `json:"unlocked"`
		UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
	}

	entries := make([]catalogEntry, 0, len(models.AchievementRules))
	for _, rule := range models.AchievementRules {
		entry := catalogEntry{
			Code:        rule.Code,
			Name:        rule.Name,
			Description: rule.Description,
			GameSlug:    rule.GameSlug,
		}
		if at, ok := unlockedAt[rule.Code]; ok {
			entry.Unlocked = true
			entry.UnlockedAt = &at
		}
		entries = append(entries, entry)
	}
	return c.JSON(entries)
}

// StreamUserAchievementsSSE streams unlocks for the authenticated user as they
// appear, so the client can toast badges earned in another tab.
func (s *AchievementService) StreamUserAchievementsSSE(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastMaxUnlockedAt time.Time

		// Initialize cursor at the newest existing unlock
		var latest models.AchievementUnlock
		if err := s.DB.
			Where("user_id = ?", userID).
			Order("unlocked_at DESC").
			First(&latest).Error; err == nil {
			lastMaxUnlockedAt = latest.UnlockedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("SSE init error for user %s: %v", userID, err)
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				var fresh []models.AchievementUnlock

				err := s.DB.
					Where("user_id = ? AND unlocked_at > ?", userID, lastMaxUnlockedAt).
					Order("unlocked_at ASC").
					Find(&fresh).Error
				if err != nil {
					log.Printf("SSE query error for user %s: %v", userID, err)
					continue
				}
				if len(fresh) == 0 {
					continue
				}

				lastMaxUnlockedAt = fresh[len(fresh)-1].UnlockedAt

				for _, unlock := range fresh {
					payload, _ := json.Marshal(unlock)
					fmt.Fprintf(w, "event: achievement\ndata: %s\n\n", payload)
				}

				if err := w.Flush(); err != nil {
					// client disconnected
					return
				}

			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}
