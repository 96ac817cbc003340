package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/bidcrawl/internal/domain"
)

// noticeSelectColumns lists columns for SELECT queries on notices.
const noticeSelectColumns = `nid, title, detail_url, posted_date, posted_by,
	org_name, org_region, category, registration, scraped_at, error_code,
	budget_amount, deadline, contact, body_html, file_name, file_url,
	notice_division, notice_number, org_dept, org_man, org_tel,
	detail_scraped_at`

// noticeUpsertQuery writes one notice, replacing the list-sourced columns on
// conflict. Detail enrichment columns are deliberately left out of the update
// so a list re-scrape never wipes collected detail data.
const noticeUpsertQuery = `
	INSERT INTO notices (
		nid, title, detail_url, posted_date, posted_by, org_name, org_region,
		category, registration, scraped_at, error_code, budget_amount,
		deadline, contact
	) VALUES (
		:nid, :title, :detail_url, :posted_date, :posted_by, :org_name,
		:org_region, :category, :registration, :scraped_at, :error_code,
		:budget_amount, :deadline, :contact
	)
	ON CONFLICT (org_name, detail_url) DO UPDATE SET
		title = EXCLUDED.title,
		posted_date = EXCLUDED.posted_date,
		posted_by = EXCLUDED.posted_by,
		org_region = EXCLUDED.org_region,
		category = EXCLUDED.category,
		registration = EXCLUDED.registration,
		scraped_at = EXCLUDED.scraped_at,
		error_code = EXCLUDED.error_code,
		budget_amount = EXCLUDED.budget_amount,
		deadline = EXCLUDED.deadline,
		contact = EXCLUDED.contact
	RETURNING detail_url`

// NoticeRepository handles database operations for collected notices.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository creates a new notice repository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// KnownKeys returns the detail URLs already stored for one organization.
func (r *NoticeRepository) KnownKeys(ctx context.Context, orgName string) (map[string]struct{}, error) {
	query := `SELECT detail_url FROM notices WHERE org_name = $1`

	var urls []string
	if err := r.db.SelectContext(ctx, &urls, query, orgName); err != nil {
		return nil, fmt.Errorf("failed to load known keys for %s: %w", orgName, err)
	}

	keys := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		keys[u] = struct{}{}
	}
	return keys, nil
}

// Upsert persists notices and returns the keys the store accepted. Notices
// failing the minimum record requirements are dropped here rather than
// rejected by the database, so one bad row never fails the batch.
func (r *NoticeRepository) Upsert(ctx context.Context, notices []domain.Notice) ([]string, error) {
	accepted := make([]string, 0, len(notices))

	for i := range notices {
		n := &notices[i]
		if !n.Valid() {
			continue
		}
		if n.NID == "" {
			n.NID = uuid.NewString()
		}

		rows, err := sqlx.NamedQueryContext(ctx, r.db, noticeUpsertQuery, n)
		if err != nil {
			return accepted, fmt.Errorf("failed to upsert notice %s: %w", n.DetailURL, err)
		}

		var key string
		for rows.Next() {
			if scanErr := rows.Scan(&key); scanErr != nil {
				rows.Close()
				return accepted, fmt.Errorf("failed to scan upsert result: %w", scanErr)
			}
		}
		rows.Close()
		if rowsErr := rows.Err(); rowsErr != nil {
			return accepted, fmt.Errorf("failed to read upsert result: %w", rowsErr)
		}

		if key != "" {
			accepted = append(accepted, key)
		}
	}

	return accepted, nil
}

// GetByKey returns the stored notice for one organization's detail URL.
func (r *NoticeRepository) GetByKey(ctx context.Context, orgName, detailURL string) (*domain.Notice, error) {
	query := `
		SELECT ` + noticeSelectColumns + `
		FROM notices
		WHERE org_name = $1 AND detail_url = $2
	`

	var n domain.Notice
	if err := r.db.GetContext(ctx, &n, query, orgName, detailURL); err != nil {
		return nil, fmt.Errorf("failed to get notice %s %s: %w", orgName, detailURL, err)
	}

	return &n, nil
}

// PendingDetails returns an organization's notices that have not had their
// detail page collected yet, newest first.
func (r *NoticeRepository) PendingDetails(ctx context.Context, orgName string, limit int) ([]*domain.Notice, error) {
	query := `
		SELECT ` + noticeSelectColumns + `
		FROM notices
		WHERE org_name = $1 AND detail_scraped_at IS NULL
		ORDER BY scraped_at DESC, detail_url
		LIMIT $2
	`

	var rows []*domain.Notice
	if err := r.db.SelectContext(ctx, &rows, query, orgName, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending details for %s: %w", orgName, err)
	}

	return rows, nil
}

// UpdateDetail writes detail enrichment onto a stored notice and stamps
// detail_scraped_at.
func (r *NoticeRepository) UpdateDetail(ctx context.Context, n *domain.Notice) error {
	query := `
		UPDATE notices
		SET body_html = :body_html, file_name = :file_name, file_url = :file_url,
			notice_division = :notice_division, notice_number = :notice_number,
			org_dept = :org_dept, org_man = :org_man, org_tel = :org_tel,
			detail_scraped_at = NOW()
		WHERE org_name = :org_name AND detail_url = :detail_url
	`

	result, err := r.db.NamedExecContext(ctx, query, n)
	return execRequireRows(result, err,
		fmt.Errorf("notice not found: %s %s", n.OrgName, n.DetailURL))
}

// ListByCategory returns stored notices in one category, newest first.
func (r *NoticeRepository) ListByCategory(ctx context.Context, category string, limit int) ([]*domain.Notice, error) {
	query := `
		SELECT ` + noticeSelectColumns + `
		FROM notices
		WHERE category = $1
		ORDER BY posted_date DESC, detail_url
		LIMIT $2
	`

	var rows []*domain.Notice
	if err := r.db.SelectContext(ctx, &rows, query, category, limit); err != nil {
		return nil, fmt.Errorf("failed to list notices by category: %w", err)
	}

	return rows, nil
}

// Recent returns the most recently scraped notices across organizations.
func (r *NoticeRepository) Recent(ctx context.Context, limit int) ([]*domain.Notice, error) {
	query := `
		SELECT ` + noticeSelectColumns + `
		FROM notices
		ORDER BY scraped_at DESC, detail_url
		LIMIT $1
	`

	var rows []*domain.Notice
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent notices: %w", err)
	}

	return rows, nil
}
