// services/stats_service.go
package services

import (
	"log"
	"time"

	"game-hub-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// Record folds one completed session's outcome into the (user, game) stats row
// and returns the merged row. The merge is a single INSERT ... ON CONFLICT
// DO UPDATE with arithmetic expressions so concurrent completions by the same
// user (two tabs) cannot lose updates. Whether a game is competitive comes
// from the catalog allowlist, never from the session.
func (s *StatsService) Record(userID string, game *models.Game, score int64, isWin bool) (*models.UserGameStats, error) {
	return s.RecordTx(s.DB, userID, game, score, isWin)
}

// RecordTx is Record running inside the caller's transaction, so a session's
// completed flip and its stats merge commit or roll back together.
func (s *StatsService) RecordTx(tx *gorm.DB, userID string, game *models.Game, score int64, isWin bool) (*models.UserGameStats, error) {
	competitive := models.IsCompetitiveGame(game.Slug)
	now := time.Now()

	var wins int64
	if isWin {
		wins = 1
	}

	row := models.UserGameStats{
		ID:           uuid.NewString(),
		UserID:       userID,
		GameID:       game.ID,
		TotalMatches: 1,
		TotalWins:    wins,
		WinStreak:    wins,
		BestWinStreak: wins,
		LastPlayedAt: now,
	}
	if competitive {
		row.RankPoints = score
	} else {
		row.HighScore = score
	}

	// All expressions read the pre-update row, so best_win_streak can be
	// computed from the old win_streak in the same statement.
	assignments := map[string]interface{}{
		"total_matches":  gorm.Expr("user_game_stats.total_matches + 1"),
		"total_wins":     gorm.Expr("user_game_stats.total_wins + ?", wins),
		"last_played_at": now,
		"updated_at":     now,
	}
	if competitive {
		assignments["rank_points"] = gorm.Expr("user_game_stats.rank_points + ?", score)
	} else {
		assignments["high_score"] = gorm.Expr(
			"CASE WHEN user_game_stats.high_score > ? THEN user_game_stats.high_score ELSE ? END", score, score)
	}
	if isWin {
		assignments["win_streak"] = gorm.Expr("user_game_stats.win_streak + 1")
		assignments["best_win_streak"] = gorm.Expr(
			"CASE WHEN user_game_stats.best_win_streak > user_game_stats.win_streak + 1 THEN user_game_stats.best_win_streak ELSE user_game_stats.win_streak + 1 END")
	} else {
		assignments["win_streak"] = 0
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "game_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&row).Error; err != nil {
		return nil, err
	}

	// Re-read the merged row — the achievement predicates need the post-merge
	// snapshot, not the seed values.
	var merged models.UserGameStats
	if err := tx.Where("user_id = ? AND game_id = ?", userID, game.ID).First(&merged).Error; err != nil {
		return nil, err
	}
	return &merged, nil
}

// GetUserStats returns every stats row the user has, most recently played
// first.
func (s *StatsService) GetUserStats(userID string) ([]models.UserGameStats, error) {
	var rows []models.UserGameStats
	err := s.DB.Where("user_id = ?", userID).Order("last_played_at DESC").Find(&rows).Error
	return rows, err
}

// --- Fiber endpoints ---

// GetUserStatsEndpoint returns per-game stats for the authenticated user.
func (s *StatsService) GetUserStatsEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	rows, err := s.GetUserStats(userID)
	if err != nil {
		log.Printf("DB error fetching stats for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch stats"})
	}
	return c.JSON(fiber.Map{
		"stats": rows,
		"count": len(rows),
	})
}
