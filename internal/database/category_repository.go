package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/bidcrawl/internal/domain"
)

// CategoryRepository handles database operations for category keyword rules.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListAll returns every category rule. An empty result disables
// classification for the run.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]domain.CategorySetting, error) {
	query := `SELECT category, keywords, nots, min_point FROM settings_keyword ORDER BY category`

	var rows []domain.CategorySetting
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list category settings: %w", err)
	}

	return rows, nil
}
