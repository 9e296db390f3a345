package services

import (
	"encoding/json"
	"testing"

	"game-hub-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every pooled connection would get its own empty :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Game{},
		&models.GameSession{},
		&models.UserGameStats{},
		&models.AchievementUnlock{},
		&models.FriendMirror{},
	))
	return db
}

type testServices struct {
	DB           *gorm.DB
	Games        *GameService
	Stats        *StatsService
	Achievements *AchievementService
	Sessions     *SessionService
	Leaderboards *LeaderboardService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := newTestDB(t)
	games := NewGameService(db)
	stats := NewStatsService(db)
	achievements := NewAchievementService(db)
	return &testServices{
		DB:           db,
		Games:        games,
		Stats:        stats,
		Achievements: achievements,
		Sessions:     NewSessionService(db, games, stats, achievements),
		Leaderboards: NewLeaderboardService(db, games),
	}
}

func seedGame(t *testing.T, db *gorm.DB, slug, category string) *models.Game {
	t.Helper()

	cfg, err := json.Marshal(map[string]interface{}{"board_size": 15})
	require.NoError(t, err)

	game := &models.Game{
		ID:            uuid.NewString(),
		Slug:          slug,
		Name:          slug,
		Category:      category,
		DefaultConfig: datatypes.JSON(cfg),
		IsActive:      true,
	}
	require.NoError(t, db.Create(game).Error)
	return game
}

func mustJSON(t *testing.T, v interface{}) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return datatypes.JSON(raw)
}
