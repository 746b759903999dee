package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Edustart-Tech/media-server/common/db"
	"github.com/Edustart-Tech/media-server/common/models"
)

// ErrAssetNotFound is returned when an asset row does not exist
var ErrAssetNotFound = errors.New("asset not found")

// AssetRepository handles database operations for media assets
type AssetRepository struct {
	db *db.DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *db.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `
	asset_id, title, alt_text, description, file_path, file_type,
	is_site_bundle, entry_document_path, sandbox_base_dir,
	processing_state, processing_error, width, height,
	uploaded_at, updated_at
`

// Create inserts a new asset
func (r *AssetRepository) Create(ctx context.Context, asset *models.MediaAsset) error {
	query := `
		INSERT INTO media_asset (
			asset_id, title, alt_text, description, file_path, file_type,
			is_site_bundle, entry_document_path, sandbox_base_dir,
			processing_state, processing_error, width, height,
			uploaded_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`

	_, err := r.db.Exec(ctx, query,
		asset.AssetID,
		asset.Title,
		asset.AltText,
		asset.Description,
		asset.FilePath,
		asset.FileType,
		asset.IsSiteBundle,
		asset.EntryDocumentPath,
		asset.SandboxBaseDir,
		asset.ProcessingState,
		asset.ProcessingError,
		asset.Width,
		asset.Height,
		asset.UploadedAt,
		asset.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// GetByID retrieves an asset by its ID
func (r *AssetRepository) GetByID(ctx context.Context, assetID uuid.UUID) (*models.MediaAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM media_asset WHERE asset_id = $1`

	asset := &models.MediaAsset{}
	err := r.db.QueryRow(ctx, query, assetID).Scan(
		&asset.AssetID,
		&asset.Title,
		&asset.AltText,
		&asset.Description,
		&asset.FilePath,
		&asset.FileType,
		&asset.IsSiteBundle,
		&asset.EntryDocumentPath,
		&asset.SandboxBaseDir,
		&asset.ProcessingState,
		&asset.ProcessingError,
		&asset.Width,
		&asset.Height,
		&asset.UploadedAt,
		&asset.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return asset, nil
}

// ListFilter narrows asset listings
type ListFilter struct {
	Query        string // matches title, description, alt_text
	FileType     string
	CategorySlug string
	Limit        int
	Offset       int
}

// List retrieves assets newest-first with optional filters
func (r *AssetRepository) List(ctx context.Context, filter ListFilter) ([]*models.MediaAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM media_asset WHERE 1=1`
	args := []interface{}{}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d OR alt_text ILIKE $%d)", n, n, n)
	}
	if filter.FileType != "" {
		args = append(args, filter.FileType)
		query += fmt.Sprintf(" AND file_type = $%d", len(args))
	}
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		query += fmt.Sprintf(` AND asset_id IN (
			SELECT ac.asset_id FROM media_asset_category ac
			JOIN media_category c ON c.category_id = ac.category_id
			WHERE c.slug = $%d
		)`, len(args))
	}

	query += " ORDER BY uploaded_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		asset := &models.MediaAsset{}
		err := rows.Scan(
			&asset.AssetID,
			&asset.Title,
			&asset.AltText,
			&asset.Description,
			&asset.FilePath,
			&asset.FileType,
			&asset.IsSiteBundle,
			&asset.EntryDocumentPath,
			&asset.SandboxBaseDir,
			&asset.ProcessingState,
			&asset.ProcessingError,
			&asset.Width,
			&asset.Height,
			&asset.UploadedAt,
			&asset.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

// Count returns the number of assets matching a filter (for pagination)
func (r *AssetRepository) Count(ctx context.Context, filter ListFilter) (int, error) {
	query := `SELECT count(*) FROM media_asset WHERE 1=1`
	args := []interface{}{}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d OR alt_text ILIKE $%d)", n, n, n)
	}
	if filter.FileType != "" {
		args = append(args, filter.FileType)
		query += fmt.Sprintf(" AND file_type = $%d", len(args))
	}
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		query += fmt.Sprintf(` AND asset_id IN (
			SELECT ac.asset_id FROM media_asset_category ac
			JOIN media_category c ON c.category_id = ac.category_id
			WHERE c.slug = $%d
		)`, len(args))
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}

	return count, nil
}

// UpdateMetadata updates editable metadata columns only. The columns owned
// by the ingestion orchestrator are deliberately not touched, so metadata
// edits never race with processing updates.
func (r *AssetRepository) UpdateMetadata(ctx context.Context, assetID uuid.UUID, title, altText, description string) error {
	query := `
		UPDATE media_asset
		SET title = $2, alt_text = $3, description = $4, updated_at = now()
		WHERE asset_id = $1
	`

	tag, err := r.db.Exec(ctx, query, assetID, title, altText, description)
	if err != nil {
		return fmt.Errorf("failed to update asset metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssetNotFound
	}

	return nil
}

// ClaimProcessing conditionally moves a pending asset into the processing
// state. Returns false when another state (ready, failed) holds the row, so
// concurrent jobs for the same asset cannot both win a fresh claim. A row
// already in processing may be re-claimed: at-least-once delivery can replay
// an event after a crash mid-extraction.
func (r *AssetRepository) ClaimProcessing(ctx context.Context, assetID uuid.UUID) (bool, error) {
	query := `
		UPDATE media_asset
		SET processing_state = $2, updated_at = now()
		WHERE asset_id = $1 AND processing_state IN ($3, $2)
	`

	tag, err := r.db.Exec(ctx, query, assetID, models.StateProcessing, models.StatePending)
	if err != nil {
		return false, fmt.Errorf("failed to claim asset for processing: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// MarkReady atomically records the located entry document, its base
// directory, and the ready state in a single update. Only the columns this
// component owns are written.
func (r *AssetRepository) MarkReady(ctx context.Context, assetID uuid.UUID, entryPath, baseDir string) error {
	query := `
		UPDATE media_asset
		SET entry_document_path = $2,
		    sandbox_base_dir = $3,
		    processing_state = $4,
		    processing_error = '',
		    updated_at = now()
		WHERE asset_id = $1
	`

	tag, err := r.db.Exec(ctx, query, assetID, entryPath, baseDir, models.StateReady)
	if err != nil {
		return fmt.Errorf("failed to mark asset ready: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssetNotFound
	}

	return nil
}

// MarkFailed records a terminal processing failure with its reason. The
// record persists; failure is not destructive.
func (r *AssetRepository) MarkFailed(ctx context.Context, assetID uuid.UUID, reason string) error {
	query := `
		UPDATE media_asset
		SET processing_state = $2, processing_error = $3, updated_at = now()
		WHERE asset_id = $1
	`

	tag, err := r.db.Exec(ctx, query, assetID, models.StateFailed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark asset failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssetNotFound
	}

	return nil
}

// ResetForReingest moves a failed site bundle back to pending so ingestion
// can be retried explicitly. Returns false when the asset is not a failed
// site bundle; failed assets are never retried implicitly.
func (r *AssetRepository) ResetForReingest(ctx context.Context, assetID uuid.UUID) (bool, error) {
	query := `
		UPDATE media_asset
		SET processing_state = $2,
		    processing_error = '',
		    entry_document_path = '',
		    sandbox_base_dir = '',
		    updated_at = now()
		WHERE asset_id = $1 AND is_site_bundle AND processing_state = $3
	`

	tag, err := r.db.Exec(ctx, query, assetID, models.StatePending, models.StateFailed)
	if err != nil {
		return false, fmt.Errorf("failed to reset asset for reingest: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes an asset row. Category links and usage rows cascade.
func (r *AssetRepository) Delete(ctx context.Context, assetID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_asset WHERE asset_id = $1`, assetID)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssetNotFound
	}

	return nil
}

// SetCategories replaces the asset's category links
func (r *AssetRepository) SetCategories(ctx context.Context, assetID uuid.UUID, categoryIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM media_asset_category WHERE asset_id = $1`, assetID); err != nil {
		return fmt.Errorf("failed to clear category links: %w", err)
	}

	for _, categoryID := range categoryIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO media_asset_category (asset_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			assetID, categoryID,
		)
		if err != nil {
			return fmt.Errorf("failed to link category %s: %w", categoryID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit category links: %w", err)
	}

	return nil
}

// ListCategories retrieves the categories linked to an asset
func (r *AssetRepository) ListCategories(ctx context.Context, assetID uuid.UUID) ([]*models.MediaCategory, error) {
	query := `
		SELECT c.category_id, c.name, c.slug
		FROM media_category c
		JOIN media_asset_category ac ON ac.category_id = c.category_id
		WHERE ac.asset_id = $1
		ORDER BY c.name ASC
	`

	rows, err := r.db.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.MediaCategory
	for rows.Next() {
		category := &models.MediaCategory{}
		if err := rows.Scan(&category.CategoryID, &category.Name, &category.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}
