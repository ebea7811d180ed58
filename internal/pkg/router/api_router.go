package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/SvenKoller/RenderKeep/app/controllers"
	"github.com/SvenKoller/RenderKeep/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "RenderKeep API",
		})
	})

	v1 := api.Group("/v1")

	// Public: account creation happens before an identity exists.
	v1.Post("/accounts", controllers.HandleRegisterAccount)

	// Everything below requires a resolved account.
	authed := v1.Group("", middleware.AccountMiddleware())
	authed.Get("/account", controllers.HandleGetAccount)
	authed.Get("/account/transactions", controllers.HandleListTransactions)
	authed.Post("/generations", controllers.HandleGenerate)
	authed.Post("/tokens/purchase", controllers.HandlePurchaseTokens)
	authed.Post("/shares", controllers.HandleCreateShareLink)
	authed.Get("/shares/:code", controllers.HandleGetShareStatus)

	admin := authed.Group("/admin", middleware.RequireAdmin())
	admin.Post("/credits", controllers.HandleAdminGrant)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
