package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaUsage records where an asset is referenced by an external content
// system. One row per (asset, content_type, object_id, field_name).
// Maps to: media_usage table.
type MediaUsage struct {
	UsageID     uuid.UUID `db:"usage_id" json:"usage_id"`
	AssetID     uuid.UUID `db:"asset_id" json:"asset_id"`
	ContentType string    `db:"content_type" json:"content_type"`
	ObjectID    string    `db:"object_id" json:"object_id"`
	FieldName   string    `db:"field_name" json:"field_name"`
	URL         string    `db:"url" json:"url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
