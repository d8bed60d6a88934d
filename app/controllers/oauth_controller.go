package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/database"
)

// HandleOAuthBegin starts the provider flow.
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	name := firstNonEmpty(u.Name, u.NickName, u.Email, "User")
	userRepo := repository.GetGlobalFactory().GetUserRepository()
	appUser, err := userRepo.GetOrCreateByProviderAccount(u.Provider, u.UserID, u.Email, name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("account resolution failed: %v", err))
	}

	// Refresh provider tokens on the linked account.
	db := database.GetDB()
	updates := map[string]any{
		"access_token":  u.AccessToken,
		"refresh_token": u.RefreshToken,
	}
	if !u.ExpiresAt.IsZero() {
		updates["expires_at"] = u.ExpiresAt
	} else {
		updates["expires_at"] = nil
	}
	if err := db.Model(&models.ProviderAccount{}).
		Where("provider = ? AND provider_user_id = ?", u.Provider, u.UserID).
		Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("update tokens failed: %v", err))
	}

	if err := beginUserSession(c, appUser); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}

	// Ensure HTMX boosted flows perform a full redirect and refresh head/meta
	c.Set("HX-Redirect", "/")
	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleOAuthLogout clears any lingering provider session state.
func HandleOAuthLogout(c *fiber.Ctx) error {
	_ = gothfiber.Logout(c)
	return HandleAuthLogout(c)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
