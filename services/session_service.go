// services/session_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"game-hub-service/models"
	"game-hub-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionService struct {
	DB           *gorm.DB
	Games        *GameService
	Stats        *StatsService
	Achievements *AchievementService
}

func NewSessionService(db *gorm.DB, games *GameService, stats *StatsService, achievements *AchievementService) *SessionService {
	return &SessionService{
		DB:           db,
		Games:        games,
		Stats:        stats,
		Achievements: achievements,
	}
}

// SaveSessionInput carries the partial fields a save may merge. Nil pointers /
// nil JSON mean "leave untouched". Status may be "", "saved" or "abandoned".
type SaveSessionInput struct {
	BoardState      datatypes.JSON
	Score           *int64
	PlayTimeSeconds *int
	Status          string
}

// Start begins a session, or resumes the one already in progress: if the user
// has a playing session for this game it is returned unchanged instead of
// creating a duplicate. "In progress" is exactly status=playing — the same
// value written at creation is the value queried here.
func (s *SessionService) Start(userID, gameID string, configOverride datatypes.JSON) (*models.GameSession, error) {
	game, err := s.Games.GetActiveGame(gameID)
	if err != nil {
		return nil, err
	}

	var existing models.GameSession
	err = s.DB.Where("user_id = ? AND game_id = ? AND status = ?",
		userID, game.ID, models.SessionStatusPlaying).
		Order("updated_at DESC").
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	config := game.DefaultConfig
	if len(configOverride) > 0 {
		config = configOverride
	}

	session := &models.GameSession{
		ID:            uuid.NewString(),
		UserID:        userID,
		GameID:        game.ID,
		BoardState:    datatypes.JSON([]byte(`{}`)),
		SessionConfig: config,
		Status:        models.SessionStatusPlaying,
	}
	if err := s.DB.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// Save merges the provided fields into the session. Terminal sessions reject
// every save; the one exception in the state machine is the transition *into*
// abandoned, accepted from any non-terminal status ("tab closed mid-game").
// Without Status the save is a checkpoint and the current status stays as-is;
// "saved" marks an explicit save slot.
func (s *SessionService) Save(userID, sessionID string, in SaveSessionInput) (*models.GameSession, error) {
	switch in.Status {
	case "", models.SessionStatusSaved, models.SessionStatusAbandoned:
	default:
		return nil, ValidationErr(fmt.Sprintf("status %q cannot be requested on save", in.Status))
	}

	session, err := s.getOwned(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, InvalidTransitionErr(fmt.Sprintf("session is already %s", session.Status))
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if in.BoardState != nil {
		updates["board_state"] = in.BoardState
	}
	if in.Score != nil {
		updates["score"] = *in.Score
	}
	if in.PlayTimeSeconds != nil {
		updates["play_time_seconds"] = *in.PlayTimeSeconds
	}
	if in.Status != "" {
		updates["status"] = in.Status
	}

	if err := s.DB.Model(&models.GameSession{}).Where("id = ?", session.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.getOwned(userID, sessionID)
}

// Complete finishes the session and synchronously rolls the outcome into the
// user's stats and achievements. The status flip is a guarded UPDATE on the
// non-terminal statuses inside the same transaction as the stats merge, so a
// duplicate Complete (network retry, second tab) reports InvalidTransition
// instead of double-counting. A positive score counts as a win — each game's
// adapter encodes its outcome into the submitted score.
func (s *SessionService) Complete(userID, sessionID string, score int64, playTimeSeconds int) (*models.GameSession, []models.AchievementUnlock, error) {
	session, err := s.getOwned(userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.IsTerminal() {
		return nil, nil, InvalidTransitionErr(fmt.Sprintf("session is already %s", session.Status))
	}

	game, err := s.Games.GetGame(session.GameID)
	if err != nil {
		return nil, nil, err
	}

	isWin := score > 0

	var stats *models.UserGameStats
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.GameSession{}).
			Where("id = ? AND status IN ?", session.ID,
				[]string{models.SessionStatusPlaying, models.SessionStatusSaved}).
			Updates(map[string]interface{}{
				"status":            models.SessionStatusCompleted,
				"score":             score,
				"play_time_seconds": playTimeSeconds,
				"updated_at":        time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// a concurrent call finished or abandoned it first
			return InvalidTransitionErr("session is already completed")
		}

		stats, err = s.Stats.RecordTx(tx, userID, game, score, isWin)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	unlocks, err := s.Achievements.EvaluateAfterCompletion(userID, game, stats)
	if err != nil {
		return nil, nil, err
	}

	completed, err := s.getOwned(userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return completed, unlocks, nil
}

// Load re-enters a session: a saved one becomes playing again and the full
// record, board state included, goes back to the adapter. Terminal sessions
// cannot be re-entered.
func (s *SessionService) Load(userID, sessionID string) (*models.GameSession, error) {
	session, err := s.getOwned(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusCompleted {
		return nil, InvalidTransitionErr("a finished game cannot be re-entered")
	}
	if session.Status == models.SessionStatusAbandoned {
		return nil, InvalidTransitionErr("an abandoned game cannot be re-entered")
	}

	if session.Status == models.SessionStatusSaved {
		if err := s.DB.Model(&models.GameSession{}).Where("id = ?", session.ID).
			Updates(map[string]interface{}{
				"status":     models.SessionStatusPlaying,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return nil, err
		}
		session.Status = models.SessionStatusPlaying
	}
	return session, nil
}

// Delete permanently removes a session. An active session must be abandoned
// or completed first — it is never silently deleted.
func (s *SessionService) Delete(userID, sessionID string) error {
	session, err := s.getOwned(userID, sessionID)
	if err != nil {
		return err
	}
	if session.Status == models.SessionStatusPlaying {
		return InvalidTransitionErr("an active session cannot be deleted — abandon or complete it first")
	}
	return s.DB.Delete(&models.GameSession{}, "id = ?", session.ID).Error
}

// HistoryFilters narrows ListHistory; zero values match everything.
type HistoryFilters struct {
	GameID string
	Status string
}

// ListHistory returns the user's sessions, most recently touched first, plus
// the total count for page computation.
func (s *SessionService) ListHistory(userID string, filters HistoryFilters, page, limit int) ([]models.GameSession, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := s.DB.Model(&models.GameSession{}).Where("user_id = ?", userID)
	if filters.GameID != "" {
		q = q.Where("game_id = ?", filters.GameID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []models.GameSession
	if err := q.Order("updated_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// SweepStaleSessions abandons playing sessions untouched since the cutoff —
// the cleanup behind browser tabs that closed without saying goodbye. Returns
// how many rows were flipped.
func (s *SessionService) SweepStaleSessions(cutoff time.Time) (int64, error) {
	res := s.DB.Model(&models.GameSession{}).
		Where("status = ? AND updated_at < ?", models.SessionStatusPlaying, cutoff).
		Updates(map[string]interface{}{
			"status":     models.SessionStatusAbandoned,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (s *SessionService) getOwned(userID, sessionID string) (*models.GameSession, error) {
	if sessionID == "" {
		return nil, ValidationErr("session_id is required")
	}
	var session models.GameSession
	// Ownership mismatches are reported exactly like missing rows, so callers
	// cannot probe for other users' session ids.
	if err := s.DB.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundErr("session not found")
		}
		return nil, err
	}
	return &session, nil
}

// AttachSnapshotEndpoint stores a rendered image next to a session (drawing
// gallery thumbnails). The image goes to R2 when configured, local uploads/
// otherwise; the hub keeps only the URL and never reads the image back.
func (s *SessionService) AttachSnapshotEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	sessionID := c.Params("id")

	session, err := s.getOwned(userID, sessionID)
	if err != nil {
		return RespondError(c, err)
	}

	file, err := c.FormFile("snapshot")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "snapshot file is required"})
	}
	if file.Size > 5*1024*1024 { // 5MB
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "snapshot too large (max 5MB)"})
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := "snapshots/" + uuid.NewString() + ext

	var snapshotURL string
	if utils.R2Enabled() {
		snapshotURL, err = utils.UploadFileToR2(file, key)
		if err != nil {
			log.Printf("❌ R2 snapshot upload failed for session %s: %v", session.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store snapshot"})
		}
	} else {
		localPath := utils.GetUploadPath(key)
		if err := utils.SaveFile(file, localPath); err != nil {
			log.Printf("❌ Local snapshot save failed for session %s: %v", session.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store snapshot"})
		}
		snapshotURL = "/" + localPath
	}

	if err := s.DB.Model(&models.GameSession{}).Where("id = ?", session.ID).
		Update("snapshot_url", snapshotURL).Error; err != nil {
		log.Printf("DB error attaching snapshot to session %s: %v", session.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to attach snapshot"})
	}

	return c.JSON(fiber.Map{
		"session_id":   session.ID,
		"snapshot_url": snapshotURL,
	})
}
