package controllers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/labels"
	"github.com/boxbinhq/boxbin/internal/pkg/objectstore"
)

var (
	labelGenerator *labels.Generator
	labelObjects   *objectstore.Client
	labelConfig    *objectstore.Config
)

// SetupLabels wires the label generator. The object store is optional; when
// present each generated sheet is archived there as well.
func SetupLabels(generator *labels.Generator, objects *objectstore.Client, config *objectstore.Config) {
	labelGenerator = generator
	labelObjects = objects
	labelConfig = config
}

// HandleBinLabelsPDF renders a printable QR label sheet. Without a bin_id
// filter it covers every bin the user owns.
func HandleBinLabelsPDF(c *fiber.Ctx) error {
	if labelGenerator == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "service_unavailable", "label printing is not configured")
	}

	userID := currentUserID(c)
	binRepo := repository.GetGlobalFactory().GetBinRepository()

	var bins []models.Bin
	if idStr := c.Query("bin_id"); idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid bin id")
		}
		bin, err := binRepo.GetByID(uint(id))
		if err != nil {
			return jsonError(c, fiber.StatusNotFound, "not_found", "bin not found")
		}
		bins = []models.Bin{*bin}
	} else {
		var err error
		bins, err = binRepo.GetByUserID(userID, 0, 500)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load bins")
		}
	}
	if len(bins) == 0 {
		return jsonError(c, fiber.StatusNotFound, "not_found", "no bins to label")
	}

	sheet := make([]labels.Label, 0, len(bins))
	for _, bin := range bins {
		if bin.UserID != userID {
			return jsonError(c, fiber.StatusNotFound, "not_found", "bin not found")
		}
		locationName := ""
		if bin.Location != nil {
			locationName = bin.Location.Name
		}
		sheet = append(sheet, labels.Label{
			BinName:  bin.Name,
			Location: locationName,
			QRSlug:   bin.QRSlug,
		})
	}

	pdf, err := labelGenerator.Generate(sheet)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "label generation failed")
	}

	if labelObjects != nil && labelConfig != nil {
		key := labelConfig.LabelSheetKey(userID, fmt.Sprintf("sheet-%d", time.Now().Unix()))
		if err := labelObjects.Put(c.Context(), key, "application/pdf", pdf); err != nil {
			log.Warnf("[Labels] archive upload failed: %v", err)
		}
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="boxbin-labels.pdf"`)
	return c.Send(pdf)
}
