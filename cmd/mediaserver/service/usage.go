package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Edustart-Tech/media-server/common/logger"
	"github.com/Edustart-Tech/media-server/common/models"
	"github.com/Edustart-Tech/media-server/common/repository"
)

// UsageService tracks where assets are referenced from, so editors can see
// what breaks before deleting an asset
type UsageService struct {
	usage  *repository.UsageRepository
	assets *repository.AssetRepository
	log    *logger.Logger
}

// NewUsageService creates a new usage service
func NewUsageService(usage *repository.UsageRepository, assets *repository.AssetRepository, log *logger.Logger) *UsageService {
	return &UsageService{
		usage:  usage,
		assets: assets,
		log:    log,
	}
}

// Record registers a usage reference. Re-recording the same reference
// updates its URL rather than duplicating the row. Returns true when the
// reference is new.
func (s *UsageService) Record(ctx context.Context, usage *models.MediaUsage) (bool, error) {
	if _, err := s.assets.GetByID(ctx, usage.AssetID); err != nil {
		return false, err
	}

	created, err := s.usage.Upsert(ctx, usage)
	if err != nil {
		return false, err
	}

	if created {
		s.log.Info("usage recorded",
			"asset_id", usage.AssetID,
			"content_type", usage.ContentType,
			"object_id", usage.ObjectID,
		)
	}

	return created, nil
}

// Remove deletes a usage reference. Returns true when a reference existed.
func (s *UsageService) Remove(ctx context.Context, assetID uuid.UUID, contentType, objectID, fieldName string) (bool, error) {
	return s.usage.Remove(ctx, assetID, contentType, objectID, fieldName)
}

// ListForAsset retrieves all usage references for an asset
func (s *UsageService) ListForAsset(ctx context.Context, assetID uuid.UUID) ([]*models.MediaUsage, error) {
	if _, err := s.assets.GetByID(ctx, assetID); err != nil {
		return nil, err
	}
	return s.usage.ListForAsset(ctx, assetID)
}
