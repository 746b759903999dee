package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Edustart-Tech/media-server/cmd/mediaserver/service"
	"github.com/Edustart-Tech/media-server/common/bootstrap"
	"github.com/Edustart-Tech/media-server/common/models"
	"github.com/Edustart-Tech/media-server/common/repository"
)

// UsageHandler handles asset usage tracking
type UsageHandler struct {
	components *bootstrap.Components
	usageSvc   *service.UsageService
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(components *bootstrap.Components, usageSvc *service.UsageService) *UsageHandler {
	return &UsageHandler{
		components: components,
		usageSvc:   usageSvc,
	}
}

type usageRequest struct {
	ContentType string `json:"content_type"`
	ObjectID    string `json:"object_id"`
	FieldName   string `json:"field_name"`
	URL         string `json:"url"`
}

func (r usageRequest) validate() error {
	if r.ContentType == "" || r.ObjectID == "" || r.FieldName == "" {
		return errors.New("content_type, object_id and field_name are required")
	}
	return nil
}

// RecordUsage registers a usage reference for an asset
// POST /api/v1/assets/:id/usage
func (h *UsageHandler) RecordUsage(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid asset_id format")
	}

	var req usageRequest
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid usage payload: "+err.Error())
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.usageSvc.Record(c.Request().Context(), &models.MediaUsage{
		AssetID:     assetID,
		ContentType: req.ContentType,
		ObjectID:    req.ObjectID,
		FieldName:   req.FieldName,
		URL:         req.URL,
	})
	if errors.Is(err, repository.ErrAssetNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "asset not found")
	}
	if err != nil {
		h.components.Logger.Error("failed to record usage", "asset_id", assetID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record usage")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, map[string]interface{}{
		"asset_id": assetID,
		"created":  created,
	})
}

// RemoveUsage deletes a usage reference
// DELETE /api/v1/assets/:id/usage
func (h *UsageHandler) RemoveUsage(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid asset_id format")
	}

	var req usageRequest
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid usage payload: "+err.Error())
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	removed, err := h.usageSvc.Remove(c.Request().Context(), assetID, req.ContentType, req.ObjectID, req.FieldName)
	if err != nil {
		h.components.Logger.Error("failed to remove usage", "asset_id", assetID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to remove usage")
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "usage reference not found")
	}

	return c.NoContent(http.StatusNoContent)
}

// ListUsage retrieves all usage references for an asset
// GET /api/v1/assets/:id/usage
func (h *UsageHandler) ListUsage(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid asset_id format")
	}

	usages, err := h.usageSvc.ListForAsset(c.Request().Context(), assetID)
	if errors.Is(err, repository.ErrAssetNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "asset not found")
	}
	if err != nil {
		h.components.Logger.Error("failed to list usage", "asset_id", assetID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list usage")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"asset_id": assetID,
		"usage":    usages,
	})
}
