package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Edustart-Tech/media-server/common/db"
	"github.com/Edustart-Tech/media-server/common/models"
)

// UsageRepository handles database operations for usage tracking
type UsageRepository struct {
	db *db.DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *db.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Upsert records a usage reference, updating the URL when the reference
// already exists. Returns true when a new row was created.
func (r *UsageRepository) Upsert(ctx context.Context, usage *models.MediaUsage) (bool, error) {
	updateQuery := `
		UPDATE media_usage
		SET url = $5
		WHERE asset_id = $1 AND content_type = $2 AND object_id = $3 AND field_name = $4
	`

	tag, err := r.db.Exec(ctx, updateQuery,
		usage.AssetID, usage.ContentType, usage.ObjectID, usage.FieldName, usage.URL,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update usage: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	insertQuery := `
		INSERT INTO media_usage (usage_id, asset_id, content_type, object_id, field_name, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (asset_id, content_type, object_id, field_name) DO UPDATE SET url = EXCLUDED.url
	`

	_, err = r.db.Exec(ctx, insertQuery,
		uuid.New(), usage.AssetID, usage.ContentType, usage.ObjectID, usage.FieldName, usage.URL, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert usage: %w", err)
	}

	return true, nil
}

// Remove deletes a usage reference. Returns true when a row was removed.
func (r *UsageRepository) Remove(ctx context.Context, assetID uuid.UUID, contentType, objectID, fieldName string) (bool, error) {
	query := `
		DELETE FROM media_usage
		WHERE asset_id = $1 AND content_type = $2 AND object_id = $3 AND field_name = $4
	`

	tag, err := r.db.Exec(ctx, query, assetID, contentType, objectID, fieldName)
	if err != nil {
		return false, fmt.Errorf("failed to remove usage: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListForAsset retrieves all usage references for an asset
func (r *UsageRepository) ListForAsset(ctx context.Context, assetID uuid.UUID) ([]*models.MediaUsage, error) {
	query := `
		SELECT usage_id, asset_id, content_type, object_id, field_name, url, created_at
		FROM media_usage
		WHERE asset_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage: %w", err)
	}
	defer rows.Close()

	var usages []*models.MediaUsage
	for rows.Next() {
		usage := &models.MediaUsage{}
		err := rows.Scan(
			&usage.UsageID,
			&usage.AssetID,
			&usage.ContentType,
			&usage.ObjectID,
			&usage.FieldName,
			&usage.URL,
			&usage.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}
		usages = append(usages, usage)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage: %w", err)
	}

	return usages, nil
}
