package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/boxbinhq/boxbin/app/repository"
)

// HandleLocationList returns all locations of the signed-in user.
func HandleLocationList(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetLocationRepository()
	locations, err := repo.GetByUserID(currentUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load locations")
	}
	return c.JSON(fiber.Map{"locations": locations})
}

// HandleLocationCreate adds a location.
func HandleLocationCreate(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name" form:"name"`
		Description string `json:"description" form:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	location := &models.Location{
		UserID:      currentUserID(c),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := location.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetLocationRepository()
	if err := repo.Create(location); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to create location")
	}
	return c.Status(fiber.StatusCreated).JSON(location)
}

// HandleLocationUpdate renames or re-describes a location.
func HandleLocationUpdate(c *fiber.Ctx) error {
	location, err := ownedLocation(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name" form:"name"`
		Description string `json:"description" form:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	if req.Name != "" {
		location.Name = req.Name
	}
	location.Description = req.Description
	if err := location.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetLocationRepository()
	if err := repo.Update(location); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to update location")
	}
	return c.JSON(location)
}

// HandleLocationDelete removes a location. Bins inside it survive without a
// location.
func HandleLocationDelete(c *fiber.Ctx) error {
	location, err := ownedLocation(c)
	if err != nil {
		return err
	}

	repo := repository.GetGlobalFactory().GetLocationRepository()
	if err := repo.Delete(location.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to delete location")
	}
	return c.JSON(fiber.Map{"deleted": true})
}

func ownedLocation(c *fiber.Ctx) (*models.Location, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid location id")
	}

	repo := repository.GetGlobalFactory().GetLocationRepository()
	location, err := repo.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "location not found")
	}
	if err != nil {
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load location")
	}
	if location.UserID != currentUserID(c) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "location not found")
	}
	return location, nil
}
