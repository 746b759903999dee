package container

import (
	"fmt"

	"github.com/Edustart-Tech/media-server/cmd/mediaserver/handlers"
	"github.com/Edustart-Tech/media-server/cmd/mediaserver/service"
	"github.com/Edustart-Tech/media-server/common/bootstrap"
	"github.com/Edustart-Tech/media-server/common/ingest"
	"github.com/Edustart-Tech/media-server/common/repository"
	"github.com/Edustart-Tech/media-server/common/storage"
)

// Container holds all initialized services and handlers (singleton pattern)
type Container struct {
	Components *bootstrap.Components
	Paths      *storage.Paths

	// Repositories
	AssetRepo    *repository.AssetRepository
	CategoryRepo *repository.CategoryRepository
	UsageRepo    *repository.UsageRepository

	// Services
	AssetService    *service.AssetService
	CategoryService *service.CategoryService
	UsageService    *service.UsageService
	Gateway         *service.Gateway

	// Handlers
	AssetHandler    *handlers.AssetHandler
	SiteHandler     *handlers.SiteHandler
	CategoryHandler *handlers.CategoryHandler
	UsageHandler    *handlers.UsageHandler
}

// NewContainer initializes all services and handlers once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	paths, err := storage.NewPaths(components.Config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage paths: %w", err)
	}

	publisher := ingest.NewPublisher(components.Redis, components.Logger)

	// Initialize repositories
	assetRepo := repository.NewAssetRepository(components.DB)
	categoryRepo := repository.NewCategoryRepository(components.DB)
	usageRepo := repository.NewUsageRepository(components.DB)

	// Initialize services (bottom-up: dependencies first)
	assetService := service.NewAssetService(assetRepo, categoryRepo, publisher, paths, components.Logger)
	categoryService := service.NewCategoryService(categoryRepo, components.Cache, components.Logger)
	usageService := service.NewUsageService(usageRepo, assetRepo, components.Logger)
	gateway := service.NewGateway(assetService, paths, components.Logger)

	return &Container{
		Components:      components,
		Paths:           paths,
		AssetRepo:       assetRepo,
		CategoryRepo:    categoryRepo,
		UsageRepo:       usageRepo,
		AssetService:    assetService,
		CategoryService: categoryService,
		UsageService:    usageService,
		Gateway:         gateway,
		AssetHandler:    handlers.NewAssetHandler(components, assetService),
		SiteHandler:     handlers.NewSiteHandler(components, gateway),
		CategoryHandler: handlers.NewCategoryHandler(components, categoryService),
		UsageHandler:    handlers.NewUsageHandler(components, usageService),
	}, nil
}
