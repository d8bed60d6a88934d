package router

import (
	"github.com/boxbinhq/boxbin/internal/pkg/middleware"
	"github.com/boxbinhq/boxbin/internal/pkg/oauth"
	"github.com/boxbinhq/boxbin/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context; guests pass
	// through and the controller decides what they may see.
	return c.Next()
}
