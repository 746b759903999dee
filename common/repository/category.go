package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Edustart-Tech/media-server/common/db"
	"github.com/Edustart-Tech/media-server/common/models"
)

// ErrCategoryNotFound is returned when a category row does not exist
var ErrCategoryNotFound = errors.New("category not found")

// CategoryRepository handles database operations for categories
type CategoryRepository struct {
	db *db.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *db.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a new category
func (r *CategoryRepository) Create(ctx context.Context, category *models.MediaCategory) error {
	query := `INSERT INTO media_category (category_id, name, slug) VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, category.CategoryID, category.Name, category.Slug)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetBySlug retrieves a category by its slug
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.MediaCategory, error) {
	query := `SELECT category_id, name, slug FROM media_category WHERE slug = $1`

	category := &models.MediaCategory{}
	err := r.db.QueryRow(ctx, query, slug).Scan(&category.CategoryID, &category.Name, &category.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// List retrieves all categories ordered by name
func (r *CategoryRepository) List(ctx context.Context) ([]*models.MediaCategory, error) {
	query := `SELECT category_id, name, slug FROM media_category ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
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
