package router

import (
	apiv1 "github.com/boxbinhq/boxbin/internal/api/v1"

	"github.com/boxbinhq/boxbin/app/controllers"
	"github.com/boxbinhq/boxbin/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes: ping plus the service-key-guarded billing endpoints
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer(h.deps.Gateway, h.deps.Subscriptions, h.deps.Minter)
	apiv1.RegisterHandlers(v1, apiServer)

	// Session-authenticated inventory API used by the web frontend
	inv := api.Group("", middleware.RequireAPISessionAuth)

	inv.Get("/locations", controllers.HandleLocationList)
	inv.Post("/locations", controllers.HandleLocationCreate)
	inv.Put("/locations/:id", controllers.HandleLocationUpdate)
	inv.Delete("/locations/:id", controllers.HandleLocationDelete)

	inv.Get("/bins", controllers.HandleBinList)
	inv.Post("/bins", controllers.HandleBinCreate)
	// labels before :id so the static segment wins
	inv.Get("/bins/labels.pdf", controllers.HandleBinLabelsPDF)
	inv.Get("/bins/:id", controllers.HandleBinGet)
	inv.Put("/bins/:id", controllers.HandleBinUpdate)
	inv.Delete("/bins/:id", controllers.HandleBinDelete)
	inv.Post("/bins/:binID/items", controllers.HandleItemCreate)

	inv.Get("/items/search", controllers.HandleItemSearch)
	inv.Put("/items/:id", controllers.HandleItemUpdate)
	inv.Delete("/items/:id", controllers.HandleItemDelete)

	inv.Get("/shares", controllers.HandleShareList)
	inv.Post("/shares", controllers.HandleShareCreate)
	inv.Delete("/shares/:id", controllers.HandleShareDelete)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
