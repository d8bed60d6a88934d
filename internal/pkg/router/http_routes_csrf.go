package router

import (
	"strings"
	"time"

	"github.com/boxbinhq/boxbin/app/controllers"
	"github.com/boxbinhq/boxbin/internal/pkg/env"
	"github.com/boxbinhq/boxbin/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/webhooks/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)

	// Billing surface
	group.Get("/billing", middleware.RequireAuth, controllers.HandleBillingPage)
	group.Post("/billing/resync", middleware.RequireAuth, controllers.HandleBillingResync)
	group.Get("/plans", middleware.RequireAuth, controllers.HandlePlans)
	group.Post("/plans/validate-coupon", middleware.RequireAuth, controllers.HandleValidateCoupon)
	group.Post("/checkout", middleware.RequireAuth, controllers.HandleCheckout)
}
