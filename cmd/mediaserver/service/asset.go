package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Edustart-Tech/media-server/common/ingest"
	"github.com/Edustart-Tech/media-server/common/logger"
	"github.com/Edustart-Tech/media-server/common/models"
	"github.com/Edustart-Tech/media-server/common/repository"
	"github.com/Edustart-Tech/media-server/common/storage"
)

var (
	// ErrNotZipArchive is returned when a site bundle upload is not a zip file
	ErrNotZipArchive = errors.New("site bundle must be a zip archive")
	// ErrReingestConflict is returned when reingestion is requested for an
	// asset that is not a failed site bundle
	ErrReingestConflict = errors.New("asset is not a failed site bundle")
)

// UploadInput carries a validated upload request
type UploadInput struct {
	Filename     string
	Content      io.Reader
	Title        string
	AltText      string
	Description  string
	IsSiteBundle bool
}

// MetadataUpdate carries a metadata edit. Nil fields are left untouched.
type MetadataUpdate struct {
	Title       *string `json:"title"`
	AltText     *string `json:"alt_text"`
	Description *string `json:"description"`
}

// AssetService implements asset lifecycle operations: upload, metadata
// edits, deletion, and explicit reingestion of failed site bundles
type AssetService struct {
	assets     *repository.AssetRepository
	categories *repository.CategoryRepository
	publisher  *ingest.Publisher
	paths      *storage.Paths
	log        *logger.Logger
}

// NewAssetService creates a new asset service
func NewAssetService(assets *repository.AssetRepository, categories *repository.CategoryRepository, publisher *ingest.Publisher, paths *storage.Paths, log *logger.Logger) *AssetService {
	return &AssetService{
		assets:     assets,
		categories: categories,
		publisher:  publisher,
		paths:      paths,
		log:        log,
	}
}

// Upload stores the uploaded blob, creates the asset record, and for site
// bundles publishes the event that triggers asynchronous ingestion. The
// upload response never waits on extraction.
func (s *AssetService) Upload(ctx context.Context, input UploadInput) (*models.MediaAsset, error) {
	if input.IsSiteBundle && strings.ToLower(filepath.Ext(input.Filename)) != ".zip" {
		return nil, ErrNotZipArchive
	}

	now := time.Now()
	relPath, err := s.storeBlob(input.Filename, input.Content, now)
	if err != nil {
		return nil, err
	}

	state := models.StateReady
	if input.IsSiteBundle {
		state = models.StatePending
	}

	title := input.Title
	if title == "" {
		title = input.Filename
	}

	asset := &models.MediaAsset{
		AssetID:         uuid.New(),
		Title:           title,
		AltText:         input.AltText,
		Description:     input.Description,
		FilePath:        relPath,
		FileType:        models.FileTypeFromName(input.Filename),
		IsSiteBundle:    input.IsSiteBundle,
		ProcessingState: state,
		UploadedAt:      now,
		UpdatedAt:       now,
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		// The record is the source of truth; an orphaned blob without a
		// record is harmless, a record without a blob is not
		if rmErr := os.Remove(s.paths.Abs(relPath)); rmErr != nil {
			s.log.Warn("failed to remove orphaned upload", "path", relPath, "error", rmErr)
		}
		return nil, err
	}

	if input.IsSiteBundle {
		if err := s.publisher.Publish(ctx, asset.AssetID, ingest.EventAssetCreated); err != nil {
			// The record stays pending; an explicit reingest cannot help
			// here, but the asset is visible and its state is honest
			s.log.Error("failed to publish created event", "asset_id", asset.AssetID, "error", err)
			return nil, fmt.Errorf("failed to enqueue ingestion: %w", err)
		}
	}

	s.log.Info("asset uploaded",
		"asset_id", asset.AssetID,
		"file_path", asset.FilePath,
		"file_type", asset.FileType,
		"is_site_bundle", asset.IsSiteBundle,
	)

	return asset, nil
}

// storeBlob writes the upload under the storage root and returns its
// root-relative path. Name collisions get a random suffix.
func (s *AssetService) storeBlob(filename string, content io.Reader, now time.Time) (string, error) {
	relPath := s.paths.UploadRel(filename, now)
	absPath := s.paths.Abs(relPath)

	if _, err := os.Stat(absPath); err == nil {
		ext := filepath.Ext(relPath)
		relPath = strings.TrimSuffix(relPath, ext) + "-" + uuid.New().String()[:8] + ext
		absPath = s.paths.Abs(relPath)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, content); err != nil {
		os.Remove(absPath)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return relPath, nil
}

// GetByID retrieves an asset by ID
func (s *AssetService) GetByID(ctx context.Context, assetID uuid.UUID) (*models.MediaAsset, error) {
	return s.assets.GetByID(ctx, assetID)
}

// List retrieves assets with optional filters, newest first
func (s *AssetService) List(ctx context.Context, filter repository.ListFilter) ([]*models.MediaAsset, int, error) {
	assets, err := s.assets.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.assets.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return assets, total, nil
}

// UpdateMetadata applies a partial metadata edit and returns the updated
// asset. Ingestion-owned fields are out of reach of this operation.
func (s *AssetService) UpdateMetadata(ctx context.Context, assetID uuid.UUID, update MetadataUpdate) (*models.MediaAsset, error) {
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	title := asset.Title
	if update.Title != nil {
		title = *update.Title
	}
	altText := asset.AltText
	if update.AltText != nil {
		altText = *update.AltText
	}
	description := asset.Description
	if update.Description != nil {
		description = *update.Description
	}

	if err := s.assets.UpdateMetadata(ctx, assetID, title, altText, description); err != nil {
		return nil, err
	}

	return s.assets.GetByID(ctx, assetID)
}

// Delete removes the asset record, its uploaded blob, and for site bundles
// publishes the event that reaps the extracted sandbox
func (s *AssetService) Delete(ctx context.Context, assetID uuid.UUID) error {
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return err
	}

	if err := s.assets.Delete(ctx, assetID); err != nil {
		return err
	}

	// Blob removal is best effort; the record is already gone
	if err := os.Remove(s.paths.Abs(asset.FilePath)); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove uploaded blob", "asset_id", assetID, "path", asset.FilePath, "error", err)
	}

	if asset.IsSiteBundle {
		if err := s.publisher.Publish(ctx, assetID, ingest.EventAssetDeleted); err != nil {
			s.log.Error("failed to publish deleted event", "asset_id", assetID, "error", err)
		}
	}

	s.log.Info("asset deleted", "asset_id", assetID)
	return nil
}

// Reingest explicitly retries ingestion of a failed site bundle. Any other
// state is a conflict; failed assets are never retried implicitly, and
// other states have nothing to retry.
func (s *AssetService) Reingest(ctx context.Context, assetID uuid.UUID) (*models.MediaAsset, error) {
	reset, err := s.assets.ResetForReingest(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if !reset {
		// Distinguish missing assets from conflicting states
		if _, err := s.assets.GetByID(ctx, assetID); err != nil {
			return nil, err
		}
		return nil, ErrReingestConflict
	}

	if err := s.publisher.Publish(ctx, assetID, ingest.EventAssetReingest); err != nil {
		return nil, fmt.Errorf("failed to enqueue reingestion: %w", err)
	}

	s.log.Info("asset reingestion requested", "asset_id", assetID)
	return s.assets.GetByID(ctx, assetID)
}

// SetCategories replaces the asset's category links, resolving slugs to
// category rows first
func (s *AssetService) SetCategories(ctx context.Context, assetID uuid.UUID, slugs []string) ([]*models.MediaCategory, error) {
	if _, err := s.assets.GetByID(ctx, assetID); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(slugs))
	for _, slug := range slugs {
		category, err := s.categories.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		ids = append(ids, category.CategoryID)
	}

	if err := s.assets.SetCategories(ctx, assetID, ids); err != nil {
		return nil, err
	}

	return s.assets.ListCategories(ctx, assetID)
}

// ListCategories retrieves the categories linked to an asset
func (s *AssetService) ListCategories(ctx context.Context, assetID uuid.UUID) ([]*models.MediaCategory, error) {
	if _, err := s.assets.GetByID(ctx, assetID); err != nil {
		return nil, err
	}
	return s.assets.ListCategories(ctx, assetID)
}
