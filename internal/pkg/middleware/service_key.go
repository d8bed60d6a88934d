package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/boxbinhq/boxbin/internal/pkg/env"
)

// ServiceKeyAuthMiddleware guards the privileged internal API. Callers must
// present the shared service key; these endpoints run with the billing
// secret key and are never exposed to browsers.
func ServiceKeyAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := strings.TrimSpace(env.GetEnv("SERVICE_API_KEY", ""))
		if expected == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "service_unavailable",
				"message": "Service key is not configured",
			})
		}

		provided := extractServiceKey(c)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Invalid service key",
			})
		}

		return c.Next()
	}
}

func extractServiceKey(c *fiber.Ctx) string {
	key := strings.TrimSpace(c.Get("X-Service-Key"))
	if key != "" {
		return key
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
