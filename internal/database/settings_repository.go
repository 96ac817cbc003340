package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/bidcrawl/internal/domain"
)

// ErrNoSettings is returned when a settings lookup matches nothing.
var ErrNoSettings = errors.New("no matching settings")

// settingsSelectColumns lists columns for SELECT queries on settings_notice_list.
const settingsSelectColumns = `oid, org_name, url, iframe, row_xpath, paging,
	start_page, end_page, login, org_region, registration, "use",
	company_in_charge, org_man, exception_row, elements, detail_elements`

// SettingsRepository handles database operations for per-organization
// scraping settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// ListActive returns all settings rows with "use" enabled, ordered by oid so
// runs visit organizations deterministically.
func (r *SettingsRepository) ListActive(ctx context.Context) ([]*domain.ScrapingSettings, error) {
	query := `SELECT ` + settingsSelectColumns + ` FROM settings_notice_list WHERE "use" <> 0 ORDER BY oid`

	var rows []*domain.ScrapingSettings
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list active settings: %w", err)
	}

	return rows, nil
}

// ListAll returns every settings row regardless of the "use" flag, for the
// admin surface.
func (r *SettingsRepository) ListAll(ctx context.Context) ([]*domain.ScrapingSettings, error) {
	query := `SELECT ` + settingsSelectColumns + ` FROM settings_notice_list ORDER BY oid`

	var rows []*domain.ScrapingSettings
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	return rows, nil
}

// GetByOrg returns the settings row for one organization. Inactive rows are
// not returned; a disabled organization behaves like a missing one.
func (r *SettingsRepository) GetByOrg(ctx context.Context, orgName string) (*domain.ScrapingSettings, error) {
	query := `SELECT ` + settingsSelectColumns + ` FROM settings_notice_list WHERE org_name = $1 AND "use" <> 0`

	var row domain.ScrapingSettings
	if err := r.db.GetContext(ctx, &row, query, orgName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNoSettings, orgName)
		}
		return nil, fmt.Errorf("failed to get settings for %s: %w", orgName, err)
	}

	return &row, nil
}
