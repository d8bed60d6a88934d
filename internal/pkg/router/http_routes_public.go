package router

import (
	"github.com/boxbinhq/boxbin/app/controllers"
	"github.com/boxbinhq/boxbin/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// QR label scans and invite links are printed/mailed, so they arrive
	// without a session. The controllers bounce guests to login with the
	// target preserved.
	app.Get("/b/:slug", loggedInMiddleware, controllers.HandleBinScan)
	app.Get("/share/accept/:token", loggedInMiddleware, controllers.HandleShareAccept)

	// Auth
	app.Get("/activate/:token", controllers.HandleAuthActivate)
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Billing provider webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}
