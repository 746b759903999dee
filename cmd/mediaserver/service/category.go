package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/Edustart-Tech/media-server/common/cache"
	"github.com/Edustart-Tech/media-server/common/logger"
	"github.com/Edustart-Tech/media-server/common/models"
	"github.com/Edustart-Tech/media-server/common/repository"
)

const (
	categoryListCacheKey = "categories:all"
	categoryListCacheTTL = 5 * time.Minute
)

// CategoryService manages the category taxonomy. Listings are cached; the
// taxonomy changes rarely and is read on most library views.
type CategoryService struct {
	categories *repository.CategoryRepository
	cache      cache.Cache
	log        *logger.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(categories *repository.CategoryRepository, cache cache.Cache, log *logger.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		cache:      cache,
		log:        log,
	}
}

// Create adds a category, deriving its slug from the name
func (s *CategoryService) Create(ctx context.Context, name string) (*models.MediaCategory, error) {
	category := &models.MediaCategory{
		CategoryID: uuid.New(),
		Name:       name,
		Slug:       slug.Make(name),
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, categoryListCacheKey); err != nil {
		s.log.Warn("failed to invalidate category cache", "error", err)
	}

	s.log.Info("category created", "category_id", category.CategoryID, "slug", category.Slug)
	return category, nil
}

// List retrieves all categories, serving from cache when possible
func (s *CategoryService) List(ctx context.Context) ([]*models.MediaCategory, error) {
	if data, found, err := s.cache.Get(ctx, categoryListCacheKey); err == nil && found {
		var categories []*models.MediaCategory
		if err := json.Unmarshal(data, &categories); err == nil {
			return categories, nil
		}
		// Unreadable cache entries fall through to the database
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(categories); err == nil {
		if err := s.cache.Set(ctx, categoryListCacheKey, data, categoryListCacheTTL); err != nil {
			s.log.Warn("failed to cache category list", "error", err)
		}
	}

	return categories, nil
}
