package models

import "github.com/google/uuid"

// MediaCategory is a taxonomy label assignable to assets.
// Maps to: media_category table.
type MediaCategory struct {
	CategoryID uuid.UUID `db:"category_id" json:"category_id"`
	Name       string    `db:"name" json:"name"`
	Slug       string    `db:"slug" json:"slug"`
}
