package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Edustart-Tech/media-server/cmd/mediaserver/service"
	"github.com/Edustart-Tech/media-server/common/bootstrap"
	"github.com/Edustart-Tech/media-server/common/repository"
)

// AssetHandler handles asset lifecycle operations
type AssetHandler struct {
	components *bootstrap.Components
	assetSvc   *service.AssetService
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(components *bootstrap.Components, assetSvc *service.AssetService) *AssetHandler {
	return &AssetHandler{
		components: components,
		assetSvc:   assetSvc,
	}
}

// UploadAsset stores a new media asset
// POST /api/v1/assets
func (h *AssetHandler) UploadAsset(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}

	isSiteBundle := false
	if raw := c.FormValue("is_site_bundle"); raw != "" {
		isSiteBundle, err = strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "is_site_bundle must be a boolean")
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.components.Logger.Error("failed to open upload", "filename", fileHeader.Filename, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read upload")
	}
	defer src.Close()

	asset, err := h.assetSvc.Upload(c.Request().Context(), service.UploadInput{
		Filename:     fileHeader.Filename,
		Content:      src,
		Title:        c.FormValue("title"),
		AltText:      c.FormValue("alt_text"),
		Description:  c.FormValue("description"),
		IsSiteBundle: isSiteBundle,
	})
	if errors.Is(err, service.ErrNotZipArchive) {
		return echo.NewHTTPError(http.StatusBadRequest, "site bundle must be a zip archive")
	}
	if err != nil {
		h.components.Logger.Error("failed to upload asset", "filename", fileHeader.Filename, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to upload asset")
	}

	return c.JSON(http.StatusCreated, asset)
}

// GetAsset retrieves an asset by ID
// GET /api/v1/assets/:id
func (h *AssetHandler) GetAsset(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid asset_id format")
	}

	asset, err := h.assetSvc.GetByID(c.Request().Context(), assetID)
	if errors.Is(err, repository.ErrAssetNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "asset not found")
	}
	if err != nil {
		h.components.Logger.Error("failed to get asset", "asset_id", assetID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get asset")
	}

	return c.JSON(http.StatusOK, asset)
}

// ListAssets retrieves assets with optional filters
// GET /api/v1/assets?q=&file_type=&category=&limit=&offset=
func (h *AssetHandler) ListAssets(c echo.Context) error {
	filter := repository.ListFilter{
		Query:        c.QueryParam("q"),
		FileType:     c.QueryParam("file_type"),
		CategorySlug: c.QueryParam("category"),
		Limit:        50,
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 200 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 200")
		}
		filter.Limit = limit
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
		filter.Offset = offset
	}

	assets, total, err := h.assetSvc.List(c.Request().Context(), filter)
	if err != nil {
		h.components.Logger.Error("failed to list assets", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list assets")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"assets": assets,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// UpdateAsset applies a partial metadata edit
// PATCH /api/v1/assets/:id
func (h *AssetHandler) UpdateAsset(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid asset_id format")
	}

	// Unknown fields are rejected so typos never silently no-op
	var update service.MetadataUpdate
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid update payload: "+err.Error())
	}

	asset, err := h.assetSvc.UpdateMetadata(c.Request().Context(), assetID, update)
	if errors.Is(err, repository.ErrAssetNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "asset not found")
	}
	if err != nil {
		h.components.Logger.Error("failed to update asset", "asset_id", assetID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update asset")
	}

	return c.JSON(http.StatusOK, asset)
}

// DeleteAsset removes an asset and its stored files
// DELETE /api/v1/assets/:id
func (h *AssetHandler) DeleteAsset(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid asset_id format")
	}

	err = h.assetSvc.Delete(c.Request().Context(), assetID)
	if errors.Is(err, repository.ErrAssetNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "asset not found")
	}
	if err != nil {
		h.components.Logger.Error("failed to delete asset", "asset_id", assetID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete asset")
	}

	return c.NoContent(http.StatusNoContent)
}

// ReingestAsset retries ingestion of a failed site bundle
// POST /api/v1/assets/:id/reingest
func (h *AssetHandler) ReingestAsset(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid asset_id format")
	}

	asset, err := h.assetSvc.Reingest(c.Request().Context(), assetID)
	if errors.Is(err, repository.ErrAssetNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "asset not found")
	}
	if errors.Is(err, service.ErrReingestConflict) {
		return echo.NewHTTPError(http.StatusConflict, "asset is not a failed site bundle")
	}
	if err != nil {
		h.components.Logger.Error("failed to reingest asset", "asset_id", assetID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to reingest asset")
	}

	return c.JSON(http.StatusAccepted, asset)
}

type setCategoriesRequest struct {
	Categories []string `json:"categories"`
}

// SetAssetCategories replaces the asset's category links
// PUT /api/v1/assets/:id/categories
func (h *AssetHandler) SetAssetCategories(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid asset_id format")
	}

	var req setCategoriesRequest
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid categories payload: "+err.Error())
	}

	categories, err := h.assetSvc.SetCategories(c.Request().Context(), assetID, req.Categories)
	if errors.Is(err, repository.ErrAssetNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "asset not found")
	}
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown category slug")
	}
	if err != nil {
		h.components.Logger.Error("failed to set asset categories", "asset_id", assetID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to set asset categories")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"asset_id":   assetID,
		"categories": categories,
	})
}

// GetAssetCategories retrieves the categories linked to an asset
// GET /api/v1/assets/:id/categories
func (h *AssetHandler) GetAssetCategories(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid asset_id format")
	}

	categories, err := h.assetSvc.ListCategories(c.Request().Context(), assetID)
	if errors.Is(err, repository.ErrAssetNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "asset not found")
	}
	if err != nil {
		h.components.Logger.Error("failed to list asset categories", "asset_id", assetID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list asset categories")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"asset_id":   assetID,
		"categories": categories,
	})
}
