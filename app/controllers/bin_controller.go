package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/constants"
	"github.com/boxbinhq/boxbin/internal/pkg/metrics/counter"
)

const binPageSize = 50

// HandleBinList returns the user's bins, paginated, with optional search.
func HandleBinList(c *fiber.Ctx) error {
	userID := currentUserID(c)
	repo := repository.GetGlobalFactory().GetBinRepository()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		bins, err := repo.Search(userID, q)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "search failed")
		}
		return c.JSON(fiber.Map{"bins": bins, "query": q})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	bins, err := repo.GetByUserID(userID, (page-1)*binPageSize, binPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load bins")
	}
	total, _ := repo.CountByUserID(userID)
	return c.JSON(fiber.Map{"bins": bins, "page": page, "total": total})
}

// HandleBinCreate adds a bin, assigning its QR slug.
func HandleBinCreate(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name" form:"name"`
		Description string `json:"description" form:"description"`
		Color       string `json:"color" form:"color"`
		LocationID  *uint  `json:"location_id" form:"location_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	userID := currentUserID(c)
	if req.LocationID != nil {
		loc, err := repository.GetGlobalFactory().GetLocationRepository().GetByID(*req.LocationID)
		if err != nil || loc.UserID != userID {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "unknown location")
		}
	}

	bin := &models.Bin{
		UserID:      userID,
		LocationID:  req.LocationID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	if err := bin.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetBinRepository()
	if err := repo.Create(bin); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to create bin")
	}
	return c.Status(fiber.StatusCreated).JSON(bin)
}

// HandleBinGet returns one bin with its items. Shared inventories are
// readable by accepted grantees.
func HandleBinGet(c *fiber.Ctx) error {
	bin, err := viewableBin(c)
	if err != nil {
		return err
	}

	items, err := repository.GetGlobalFactory().GetItemRepository().GetByBinID(bin.ID, 0, 500)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load items")
	}
	return c.JSON(fiber.Map{"bin": bin, "items": items})
}

// HandleBinUpdate edits a bin.
func HandleBinUpdate(c *fiber.Ctx) error {
	bin, err := editableBin(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name" form:"name"`
		Description string `json:"description" form:"description"`
		Color       string `json:"color" form:"color"`
		LocationID  *uint  `json:"location_id" form:"location_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	if req.Name != "" {
		bin.Name = req.Name
	}
	bin.Description = req.Description
	bin.Color = req.Color
	if req.LocationID != nil {
		loc, err := repository.GetGlobalFactory().GetLocationRepository().GetByID(*req.LocationID)
		if err != nil || loc.UserID != bin.UserID {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "unknown location")
		}
		bin.LocationID = req.LocationID
	}
	if err := bin.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetBinRepository()
	if err := repo.Update(bin); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to update bin")
	}
	return c.JSON(bin)
}

// HandleBinDelete removes a bin and everything in it.
func HandleBinDelete(c *fiber.Ctx) error {
	bin, err := editableBin(c)
	if err != nil {
		return err
	}
	if bin.UserID != currentUserID(c) {
		// Editors may change content but only the owner deletes bins.
		return jsonError(c, fiber.StatusForbidden, "forbidden", "only the owner can delete a bin")
	}

	repo := repository.GetGlobalFactory().GetBinRepository()
	if err := repo.Delete(bin.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to delete bin")
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// HandleBinScan resolves a printed QR label. Anonymous scans are sent to
// login with the target preserved.
func HandleBinScan(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if !isLoggedIn(c) {
		return c.Redirect(constants.LoginRoute+"?next="+constants.ScanRoutePrefix+slug, fiber.StatusSeeOther)
	}

	repo := repository.GetGlobalFactory().GetBinRepository()
	bin, err := repo.GetByQRSlug(slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fiber.StatusNotFound, "not_found", "unknown label")
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to resolve label")
	}
	if !canViewInventory(bin.UserID, currentUserID(c)) {
		return jsonError(c, fiber.StatusNotFound, "not_found", "unknown label")
	}

	if err := counter.AddBinScan(bin.ID); err != nil {
		log.Warnf("[Bins] scan counter for bin %d: %v", bin.ID, err)
	}

	items, err := repository.GetGlobalFactory().GetItemRepository().GetByBinID(bin.ID, 0, 500)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load items")
	}
	return c.JSON(fiber.Map{"bin": bin, "items": items})
}

// viewableBin loads the bin from :id and checks read access.
func viewableBin(c *fiber.Ctx) (*models.Bin, error) {
	bin, err := loadBin(c)
	if err != nil {
		return nil, err
	}
	if !canViewInventory(bin.UserID, currentUserID(c)) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "bin not found")
	}
	return bin, nil
}

// editableBin loads the bin from :id and checks write access.
func editableBin(c *fiber.Ctx) (*models.Bin, error) {
	bin, err := loadBin(c)
	if err != nil {
		return nil, err
	}
	if !canEditInventory(bin.UserID, currentUserID(c)) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "bin not found")
	}
	return bin, nil
}

func loadBin(c *fiber.Ctx) (*models.Bin, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid bin id")
	}

	repo := repository.GetGlobalFactory().GetBinRepository()
	bin, err := repo.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "bin not found")
	}
	if err != nil {
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load bin")
	}
	return bin, nil
}
