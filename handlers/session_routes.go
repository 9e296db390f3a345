// handlers/session_routes.go
package handlers

import (
	"strconv"

	"game-hub-service/middleware"
	"game-hub-service/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

func SetupSessionRoutes(app *fiber.App, sessionService *services.SessionService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/sessions/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			GameID string         `json:"game_id"`
			Config datatypes.JSON `json:"config"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		if req.GameID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "game_id is required"})
		}

		session, err := sessionService.Start(userID, req.GameID, req.Config)
		if err != nil {
			return services.RespondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	secured.Patch("/sessions/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			BoardState      datatypes.JSON `json:"board_state"`
			Score           *int64         `json:"score"`
			PlayTimeSeconds *int           `json:"play_time_seconds"`
			Status          string         `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}

		session, err := sessionService.Save(userID, c.Params("id"), services.SaveSessionInput{
			BoardState:      req.BoardState,
			Score:           req.Score,
			PlayTimeSeconds: req.PlayTimeSeconds,
			Status:          req.Status,
		})
		if err != nil {
			return services.RespondError(c, err)
		}
		return c.JSON(session)
	})

	secured.Post("/sessions/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Score           int64 `json:"score"`
			PlayTimeSeconds int   `json:"play_time_seconds"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}

		session, unlocks, err := sessionService.Complete(userID, c.Params("id"), req.Score, req.PlayTimeSeconds)
		if err != nil {
			return services.RespondError(c, err)
		}
		return c.JSON(fiber.Map{
			"session":          session,
			"new_achievements": unlocks,
		})
	})

	secured.Post("/sessions/:id/load", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		session, err := sessionService.Load(userID, c.Params("id"))
		if err != nil {
			return services.RespondError(c, err)
		}
		return c.JSON(session)
	})

	secured.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		if err := sessionService.Delete(userID, c.Params("id")); err != nil {
			return services.RespondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "session deleted"})
	})

	secured.Get("/sessions/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		page, _ := strconv.Atoi(c.Query("page", "1"))
		limit, _ := strconv.Atoi(c.Query("limit", "20"))

		filters := services.HistoryFilters{
			GameID: c.Query("game_id"),
			Status: c.Query("status"),
		}

		sessions, total, err := sessionService.ListHistory(userID, filters, page, limit)
		if err != nil {
			return services.RespondError(c, err)
		}

		if limit < 1 || limit > 100 {
			limit = 20
		}
		totalPages := int((total + int64(limit) - 1) / int64(limit))
		return c.JSON(fiber.Map{
			"sessions":    sessions,
			"page":        page,
			"size":        limit,
			"total_items": total,
			"total_pages": totalPages,
		})
	})

	secured.Post("/sessions/:id/snapshot", sessionService.AttachSnapshotEndpoint)
}
