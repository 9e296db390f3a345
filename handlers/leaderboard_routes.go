// handlers/leaderboard_routes.go
package handlers

import (
	"strconv"

	"game-hub-service/middleware"
	"game-hub-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService, statsService *services.StatsService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/leaderboard/:game_id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		page, _ := strconv.Atoi(c.Query("page", "1"))
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		scope := services.LeaderboardScope(c.Query("scope", string(services.ScopeGlobal)))

		board, err := leaderboardService.Leaderboard(c.Params("game_id"), scope, userID, page, limit)
		if err != nil {
			return services.RespondError(c, err)
		}
		return c.JSON(board)
	})

	secured.Get("/leaderboard/:game_id/me", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		rank, err := leaderboardService.MyRank(userID, c.Params("game_id"))
		if err != nil {
			return services.RespondError(c, err)
		}
		return c.JSON(rank)
	})

	secured.Get("/user/stats", statsService.GetUserStatsEndpoint)
}
