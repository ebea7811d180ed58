package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SvenKoller/RenderKeep/app/controllers"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Public share tracking redirect. No auth: tracking codes arrive from
	// anywhere on the internet and unknown codes soft-fail.
	app.Get("/s/:code", controllers.HandleShareRedirect)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
