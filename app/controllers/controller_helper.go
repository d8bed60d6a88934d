package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boxbinhq/boxbin/internal/pkg/usercontext"
)

// Session and Locals keys shared with the middleware layer.
const (
	AUTH_KEY       string = usercontext.AuthKey
	USER_ID        string = usercontext.KeyUserID
	USER_NAME      string = usercontext.KeyUsername
	USER_IS_ADMIN  string = usercontext.KeyIsAdmin
	FROM_PROTECTED string = usercontext.KeyFromProtected
)

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(FROM_PROTECTED); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// currentUserID returns the authenticated user's id, or 0 for anonymous.
func currentUserID(c *fiber.Ctx) uint {
	return usercontext.GetUserID(c)
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}
