package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/Edustart-Tech/media-server/cmd/mediaserver/handlers"
)

// RegisterAssetRoutes registers asset lifecycle and taxonomy routes
func RegisterAssetRoutes(g *echo.Group, asset *handlers.AssetHandler, category *handlers.CategoryHandler, usage *handlers.UsageHandler) {
	g.POST("/assets", asset.UploadAsset)
	g.GET("/assets", asset.ListAssets)
	g.GET("/assets/:id", asset.GetAsset)
	g.PATCH("/assets/:id", asset.UpdateAsset)
	g.DELETE("/assets/:id", asset.DeleteAsset)
	g.POST("/assets/:id/reingest", asset.ReingestAsset)

	g.GET("/assets/:id/categories", asset.GetAssetCategories)
	g.PUT("/assets/:id/categories", asset.SetAssetCategories)

	g.POST("/categories", category.CreateCategory)
	g.GET("/categories", category.ListCategories)

	g.POST("/assets/:id/usage", usage.RecordUsage)
	g.GET("/assets/:id/usage", usage.ListUsage)
	g.DELETE("/assets/:id/usage", usage.RemoveUsage)
}
