package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Edustart-Tech/media-server/cmd/mediaserver/service"
	"github.com/Edustart-Tech/media-server/common/bootstrap"
)

// CategoryHandler handles category taxonomy operations
type CategoryHandler struct {
	components  *bootstrap.Components
	categorySvc *service.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(components *bootstrap.Components, categorySvc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		components:  components,
		categorySvc: categorySvc,
	}
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory adds a new category
// POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req createCategoryRequest
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category payload: "+err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	category, err := h.categorySvc.Create(c.Request().Context(), req.Name)
	if err != nil {
		h.components.Logger.Error("failed to create category", "name", req.Name, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create category")
	}

	return c.JSON(http.StatusCreated, category)
}

// ListCategories retrieves all categories
// GET /api/v1/categories
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.categorySvc.List(c.Request().Context())
	if err != nil {
		h.components.Logger.Error("failed to list categories", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list categories")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}
