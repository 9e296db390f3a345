// services/game_service.go
package services

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"game-hub-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GameService struct {
	DB *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{DB: db}
}

// catalogSeed describes the built-in mini-games. Display names are derived
// from the slug; DefaultConfig is the opaque document handed to new sessions.
type catalogSeed struct {
	Slug        string
	Category    string
	Description string
	Config      map[string]interface{}
}

var catalogSeeds = []catalogSeed{
	{
		Slug:        "gomoku",
		Category:    models.GameCategoryCompetitive,
		Description: "Five in a row on a 15×15 board against the bot",
		Config:      map[string]interface{}{"board_size": 15, "win_length": 5, "ai_level": "normal"},
	},
	{
		Slug:        "tic tac toe",
		Category:    models.GameCategoryCasual,
		Description: "Classic 3×3 noughts and crosses",
		Config:      map[string]interface{}{"board_size": 3, "ai_level": "normal"},
	},
	{
		Slug:        "snake",
		Category:    models.GameCategoryCasual,
		Description: "Eat, grow, don't bite yourself",
		Config:      map[string]interface{}{"grid_width": 20, "grid_height": 20, "speed": "medium"},
	},
	{
		Slug:        "link game",
		Category:    models.GameCategoryCasual,
		Description: "Match and clear tile pairs before the clock runs out",
		Config:      map[string]interface{}{"rows": 8, "cols": 10, "time_limit_seconds": 300},
	},
	{
		Slug:        "memory pairs",
		Category:    models.GameCategoryCasual,
		Description: "Flip cards and remember where the pairs hide",
		Config:      map[string]interface{}{"pairs": 12},
	},
	{
		Slug:        "drawing",
		Category:    models.GameCategoryCasual,
		Description: "Freehand canvas — doodle and keep your gallery",
		Config:      map[string]interface{}{"canvas_width": 800, "canvas_height": 600, "palette": "default"},
	},
}

// SeedCatalog inserts the built-in games, skipping slugs that already exist so
// boot stays idempotent.
func (s *GameService) SeedCatalog() error {
	titler := cases.Title(language.English)

	for _, seed := range catalogSeeds {
		cfg, err := json.Marshal(seed.Config)
		if err != nil {
			return err
		}

		game := models.Game{
			ID:            uuid.NewString(),
			Slug:          slug.Make(seed.Slug),
			Name:          titler.String(strings.ToLower(seed.Slug)),
			Description:   seed.Description,
			Category:      seed.Category,
			DefaultConfig: datatypes.JSON(cfg),
			IsActive:      true,
		}

		res := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&game)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			log.Printf("🎮 Seeded game: %s (%s)", game.Name, game.Slug)
		}
	}
	return nil
}

// GetActiveGame returns a playable catalog entry or NotFound. Inactive games
// are reported identically to missing ones.
func (s *GameService) GetActiveGame(gameID string) (*models.Game, error) {
	if gameID == "" {
		return nil, ValidationErr("game_id is required")
	}
	var game models.Game
	if err := s.DB.Where("id = ? AND is_active = ?", gameID, true).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundErr("game not found or inactive")
		}
		return nil, err
	}
	return &game, nil
}

// GetGame looks a game up regardless of its active flag — history and
// leaderboards stay readable after a game is retired from the catalog.
func (s *GameService) GetGame(gameID string) (*models.Game, error) {
	if gameID == "" {
		return nil, ValidationErr("game_id is required")
	}
	var game models.Game
	if err := s.DB.Where("id = ?", gameID).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundErr("game not found")
		}
		return nil, err
	}
	return &game, nil
}

// --- Fiber endpoints ---

// GetAllGames lists active catalog entries.
func (s *GameService) GetAllGames(c *fiber.Ctx) error {
	var games []models.Game
	if err := s.DB.Where("is_active = ?", true).Order("name ASC").Find(&games).Error; err != nil {
		log.Printf("DB error listing games: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list games"})
	}
	return c.JSON(games)
}

// GetGameByID returns one catalog entry, active or not.
func (s *GameService) GetGameByID(c *fiber.Ctx) error {
	game, err := s.GetGame(c.Params("id"))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(game)
}
