package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Edustart-Tech/media-server/cmd/mediaserver/service"
	"github.com/Edustart-Tech/media-server/common/bootstrap"
)

// SiteHandler serves files from extracted site sandboxes
type SiteHandler struct {
	components *bootstrap.Components
	gateway    *service.Gateway
}

// NewSiteHandler creates a new site handler
func NewSiteHandler(components *bootstrap.Components, gateway *service.Gateway) *SiteHandler {
	return &SiteHandler{
		components: components,
		gateway:    gateway,
	}
}

// ServeSite serves a file from an asset's sandbox. The bare asset URL
// serves the entry document.
// GET /sites/:id
// GET /sites/:id/*
func (h *SiteHandler) ServeSite(c echo.Context) error {
	// Malformed IDs get the same 404 as unknown ones
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}

	resolved, err := h.gateway.Resolve(c.Request().Context(), assetID, c.Param("*"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}

	h.setSiteHeaders(c)
	c.Response().Header().Set(echo.HeaderContentType, resolved.ContentType)

	return c.File(resolved.Path)
}

// setSiteHeaders applies the embedding and caching policy for served site
// content. Sites may be framed by same-origin pages only; cross-origin
// fetches of individual files are allowed.
func (h *SiteHandler) setSiteHeaders(c echo.Context) {
	header := c.Response().Header()
	header.Set("X-Frame-Options", "SAMEORIGIN")
	header.Set("Content-Security-Policy", "frame-ancestors 'self'")
	header.Set("Access-Control-Allow-Origin", "*")

	if h.components.Config.IsDevelopment() {
		header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		header.Set("Pragma", "no-cache")
	}
}
