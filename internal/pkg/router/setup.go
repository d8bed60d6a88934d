package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/authtoken"
	"github.com/boxbinhq/boxbin/internal/pkg/billing"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies carries the shared services the routers hand to their
// controllers.
type Dependencies struct {
	Gateway       billing.Gateway
	Subscriptions repository.SubscriptionRepository
	Minter        *authtoken.Minter
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// Install HttpRouter first to initialize session store, oauth providers,
	// and the global UserContext middleware. Then register API routes which
	// depend on that middleware.
	setup(app, NewHttpRouter(), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
