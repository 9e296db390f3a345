// handlers/game_routes.go
package handlers

import (
	"game-hub-service/middleware"
	"game-hub-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, gameService *services.GameService) {
	// 🔓 Catalog reads — no user context, but still behind Gateway auth
	app.Get("/games", gameService.GetAllGames)
	app.Get("/games/:id", gameService.GetGameByID)
}

func SetupAchievementRoutes(app *fiber.App, achievementService *services.AchievementService, authClient *services.AuthServiceClient) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/user/achievements", achievementService.GetUserAchievements)
	secured.Get("/achievements", achievementService.GetAchievementCatalog)

	// SSE authenticates via query params — EventSource cannot send headers
	app.Get("/user/achievements/stream",
		middleware.SSEAuthMiddleware(authClient),
		achievementService.StreamUserAchievementsSSE)
}
