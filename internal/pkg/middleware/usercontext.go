package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/entitlements"
	"github.com/boxbinhq/boxbin/internal/pkg/session"
	"github.com/boxbinhq/boxbin/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request.
// This centralizes user session handling and eliminates code duplication.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	// We skip our app session on /auth/* to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		setAnonymous(c)
		return c.Next()
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		setAnonymous(c)
		return c.Next()
	}
	uid, ok := userID.(uint)
	if !ok || uid == 0 {
		setAnonymous(c)
		return c.Next()
	}

	username := session.GetSessionValue(c, usercontext.KeyUsername)
	isAdmin := sess.Get(usercontext.KeyIsAdmin)

	// Plan with session-first strategy; fall back to the subscription mirror.
	plan := session.GetSessionValue(c, "user_plan")
	if plan == "" {
		plan = "free"
		if factory := repository.GetGlobalFactory(); factory != nil {
			sub, err := factory.GetSubscriptionRepository().GetActiveByUserID(uid)
			switch {
			case err == nil && sub.PlanID != "":
				plan = sub.PlanID
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				// Leave the free default; the mirror is a secondary source.
			}
		}
		_ = session.SetSessionValue(c, "user_plan", plan)
	}

	// A session cookie can outlive the process. If no entitlement session is
	// running for this user, restore one: restored sessions never trigger the
	// plan prompt.
	if mgr := entitlements.GetManager(); mgr != nil {
		if _, running := mgr.Get(uid); !running {
			mgr.RestoreSession(c.Context(), uid)
		}
	}

	admin := false
	if b, ok := isAdmin.(bool); ok {
		admin = b
	}
	userCtx := usercontext.UserContext{
		UserID:     uid,
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    admin,
		Plan:       plan,
	}
	c.Locals("USER_CONTEXT", userCtx)

	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUsername, username)
	c.Locals(usercontext.KeyUserID, uid)
	c.Locals(usercontext.KeyIsAdmin, userCtx.IsAdmin)

	return c.Next()
}

func setAnonymous(c *fiber.Ctx) {
	c.Locals("USER_CONTEXT", usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(usercontext.KeyFromProtected, false)
	c.Locals(usercontext.KeyIsAdmin, false)
}
