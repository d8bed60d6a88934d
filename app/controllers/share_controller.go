package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/constants"
	"github.com/boxbinhq/boxbin/internal/pkg/env"
	"github.com/boxbinhq/boxbin/internal/pkg/mail"
	"github.com/boxbinhq/boxbin/internal/pkg/usercontext"
	"github.com/boxbinhq/boxbin/internal/pkg/utils"
)

// canViewInventory reports whether viewer may read owner's inventory.
func canViewInventory(ownerID, viewerID uint) bool {
	if ownerID == viewerID {
		return true
	}
	share, err := repository.GetGlobalFactory().GetShareRepository().GetForOwnerAndGrantee(ownerID, viewerID)
	return err == nil && share.IsAccepted()
}

// canEditInventory reports whether viewer may modify owner's inventory.
func canEditInventory(ownerID, viewerID uint) bool {
	if ownerID == viewerID {
		return true
	}
	share, err := repository.GetGlobalFactory().GetShareRepository().GetForOwnerAndGrantee(ownerID, viewerID)
	return err == nil && share.IsAccepted() && share.CanEdit()
}

// HandleShareCreate invites another user to the caller's inventory.
func HandleShareCreate(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" form:"email"`
		Role  string `json:"role" form:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "email is required")
	}
	role := req.Role
	if role == "" {
		role = models.ShareRoleViewer
	}
	if role != models.ShareRoleViewer && role != models.ShareRoleEditor {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "role must be viewer or editor")
	}

	share := &models.InventoryShare{
		OwnerID:      currentUserID(c),
		GranteeEmail: email,
		Role:         role,
	}
	if err := share.GenerateInviteToken(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to create invite")
	}

	repo := repository.GetGlobalFactory().GetShareRepository()
	if err := repo.Create(share); err != nil {
		return jsonError(c, fiber.StatusConflict, "conflict", "this inventory is already shared with that address")
	}

	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	inviteURL := fmt.Sprintf("%s/share/accept/%s", base, share.InviteToken)
	ownerName := usercontext.GetUsername(c)
	go func() {
		if err := mail.SendShareInvite(email, ownerName, role, inviteURL); err != nil {
			log.Warnf("[Share] invite mail to %s failed: %v", email, err)
		}
	}()

	return c.Status(fiber.StatusCreated).JSON(share)
}

// HandleShareList returns shares the caller granted and received.
func HandleShareList(c *fiber.Ctx) error {
	userID := currentUserID(c)
	repo := repository.GetGlobalFactory().GetShareRepository()

	granted, err := repo.GetByOwnerID(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load shares")
	}
	received, err := repo.GetByGranteeUserID(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load shares")
	}

	type grantedShare struct {
		models.InventoryShare
		AvatarURL string `json:"avatar_url"`
	}
	withAvatars := make([]grantedShare, 0, len(granted))
	for _, s := range granted {
		withAvatars = append(withAvatars, grantedShare{
			InventoryShare: s,
			AvatarURL:      utils.GetGravatarURL(s.GranteeEmail, 80),
		})
	}
	return c.JSON(fiber.Map{"granted": withAvatars, "received": received})
}

// HandleShareAccept claims an invite for the signed-in user.
func HandleShareAccept(c *fiber.Ctx) error {
	token := c.Params("token")
	if !isLoggedIn(c) {
		return c.Redirect(constants.LoginRoute+"?next=/share/accept/"+token, fiber.StatusSeeOther)
	}

	repo := repository.GetGlobalFactory().GetShareRepository()
	share, err := repo.GetByInviteToken(token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fiber.StatusNotFound, "not_found", "unknown or expired invite")
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load invite")
	}

	userID := currentUserID(c)
	if share.OwnerID == userID {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "you cannot accept your own invite")
	}
	if share.IsAccepted() && *share.GranteeUserID != userID {
		return jsonError(c, fiber.StatusConflict, "conflict", "invite already claimed")
	}

	now := time.Now()
	share.GranteeUserID = &userID
	share.AcceptedAt = &now
	if err := repo.Update(share); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to accept invite")
	}
	return c.JSON(share)
}

// HandleShareDelete revokes a share. The owner or the grantee may do this.
func HandleShareDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid share id")
	}

	repo := repository.GetGlobalFactory().GetShareRepository()
	share, err := repo.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fiber.StatusNotFound, "not_found", "share not found")
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load share")
	}

	userID := currentUserID(c)
	isGrantee := share.GranteeUserID != nil && *share.GranteeUserID == userID
	if share.OwnerID != userID && !isGrantee {
		return jsonError(c, fiber.StatusNotFound, "not_found", "share not found")
	}

	if err := repo.Delete(share.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to revoke share")
	}
	return c.JSON(fiber.Map{"deleted": true})
}
