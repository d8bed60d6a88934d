package controllers

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/photos"
)

var photoStore *photos.Store

// SetupPhotos wires the photo store into the item controllers. Optional;
// without it photo uploads are rejected.
func SetupPhotos(store *photos.Store) {
	photoStore = store
}

// HandleItemSearch searches across all of the user's items.
func HandleItemSearch(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "query parameter q is required")
	}

	repo := repository.GetGlobalFactory().GetItemRepository()
	items, err := repo.Search(currentUserID(c), q)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "search failed")
	}
	return c.JSON(fiber.Map{"items": items, "query": q})
}

// HandleItemCreate adds an item to a bin, with an optional photo upload.
func HandleItemCreate(c *fiber.Ctx) error {
	binID, err := strconv.ParseUint(c.Params("binID"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid bin id")
	}

	binRepo := repository.GetGlobalFactory().GetBinRepository()
	bin, err := binRepo.GetByID(uint(binID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fiber.StatusNotFound, "not_found", "bin not found")
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load bin")
	}
	if !canEditInventory(bin.UserID, currentUserID(c)) {
		return jsonError(c, fiber.StatusNotFound, "not_found", "bin not found")
	}

	quantity, _ := strconv.Atoi(c.FormValue("quantity", "1"))
	item := &models.Item{
		UserID:      bin.UserID,
		BinID:       bin.ID,
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Quantity:    quantity,
	}
	if err := item.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	if file, err := c.FormFile("photo"); err == nil && file != nil {
		if photoStore == nil {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "photo uploads are not enabled")
		}
		src, err := file.Open()
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "bad_request", "unreadable photo upload")
		}
		data, err := io.ReadAll(io.LimitReader(src, photos.MaxPhotoBytes+1))
		src.Close()
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "bad_request", "unreadable photo upload")
		}
		stored, err := photoStore.Save(c.Context(), file.Filename, data)
		if err != nil {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
		}
		item.PhotoPath = stored.ObjectKey
		item.ThumbnailPath = stored.ThumbnailKey
	}

	repo := repository.GetGlobalFactory().GetItemRepository()
	if err := repo.Create(item); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to create item")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleItemUpdate edits an item.
func HandleItemUpdate(c *fiber.Ctx) error {
	item, err := editableItem(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name" form:"name"`
		Description string `json:"description" form:"description"`
		Quantity    *int   `json:"quantity" form:"quantity"`
		BinID       *uint  `json:"bin_id" form:"bin_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	if req.Name != "" {
		item.Name = req.Name
	}
	item.Description = req.Description
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.BinID != nil && *req.BinID != item.BinID {
		// Moving between bins stays within the same inventory.
		target, err := repository.GetGlobalFactory().GetBinRepository().GetByID(*req.BinID)
		if err != nil || target.UserID != item.UserID {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "unknown target bin")
		}
		item.BinID = target.ID
	}
	if err := item.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetItemRepository()
	if err := repo.Update(item); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to update item")
	}
	return c.JSON(item)
}

// HandleItemDelete removes an item and its stored photo.
func HandleItemDelete(c *fiber.Ctx) error {
	item, err := editableItem(c)
	if err != nil {
		return err
	}

	repo := repository.GetGlobalFactory().GetItemRepository()
	if err := repo.Delete(item.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to delete item")
	}
	if photoStore != nil && item.PhotoPath != "" {
		photoStore.Delete(c.Context(), item.PhotoPath, item.ThumbnailPath)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

func editableItem(c *fiber.Ctx) (*models.Item, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid item id")
	}

	repo := repository.GetGlobalFactory().GetItemRepository()
	item, err := repo.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "item not found")
	}
	if err != nil {
		log.Errorf("[Items] load %d failed: %v", id, err)
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load item")
	}
	if !canEditInventory(item.UserID, currentUserID(c)) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "item not found")
	}
	return item, nil
}
