package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/bidcrawl/internal/domain"
)

// LogRepository handles database operations for run audit records.
type LogRepository struct {
	db *sqlx.DB
}

// NewLogRepository creates a new log repository.
func NewLogRepository(db *sqlx.DB) *LogRepository {
	return &LogRepository{db: db}
}

// InsertLogs writes one audit record per organization for a finished run.
func (r *LogRepository) InsertLogs(ctx context.Context, logs []domain.ScrapingLog) error {
	query := `
		INSERT INTO scraping_logs (
			org_name, error_code, error_message,
			scraped_count, new_count, inserted_count, time
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for i := range logs {
		l := &logs[i]

		var code *int
		var message *string
		if l.Error != nil {
			c := int(l.Error.ErrorCode)
			code = &c
			message = &l.Error.ErrorMessage
		}

		if _, err := r.db.ExecContext(ctx, query,
			l.OrgName, code, message,
			l.ScrapedCount, l.NewCount, l.InsertedCount, l.Time,
		); err != nil {
			return fmt.Errorf("failed to insert scraping log for %s: %w", l.OrgName, err)
		}
	}

	return nil
}

// InsertRunErrors writes the aggregate failed-organizations record for a run.
func (r *LogRepository) InsertRunErrors(ctx context.Context, rec *domain.RunErrors) error {
	query := `INSERT INTO scraping_errors (orgs, time) VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, rec.Orgs, rec.Time); err != nil {
		return fmt.Errorf("failed to insert run errors: %w", err)
	}

	return nil
}

// Recent returns the newest audit records for the ops surface.
func (r *LogRepository) Recent(ctx context.Context, limit int) ([]domain.ScrapingLog, error) {
	query := `
		SELECT org_name, error_code, error_message,
			scraped_count, new_count, inserted_count, time
		FROM scraping_logs
		ORDER BY time DESC
		LIMIT $1
	`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.ScrapingLog
	for rows.Next() {
		var l domain.ScrapingLog
		var code *int
		var message *string

		if scanErr := rows.Scan(&l.OrgName, &code, &message,
			&l.ScrapedCount, &l.NewCount, &l.InsertedCount, &l.Time); scanErr != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", scanErr)
		}

		if code != nil {
			l.Error = &domain.ScrapingError{ErrorCode: domain.ErrorCode(*code)}
			if message != nil {
				l.Error.ErrorMessage = *message
			}
		}

		logs = append(logs, l)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to read log rows: %w", rowsErr)
	}

	return logs, nil
}
