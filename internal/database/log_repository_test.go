package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/jonesrussell/bidcrawl/internal/database"
	"github.com/jonesrussell/bidcrawl/internal/domain"
)

func TestLogRepository_InsertLogs(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := database.NewLogRepository(db)
	now := time.Now()

	mock.ExpectExec("INSERT INTO scraping_logs").
		WithArgs("광진구", nil, nil, 20, 17, 17, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO scraping_logs").
		WithArgs("서초구", 400, "request failed", 5, 0, 0, now).
		WillReturnResult(sqlmock.NewResult(2, 1))

	logs := []domain.ScrapingLog{
		{OrgName: "광진구", ScrapedCount: 20, NewCount: 17, InsertedCount: 17, Time: now},
		{
			OrgName: "서초구",
			Error: &domain.ScrapingError{
				ErrorCode:    domain.CodeNetworkError,
				ErrorMessage: "request failed",
			},
			ScrapedCount: 5,
			Time:         now,
		},
	}

	if err := repo.InsertLogs(context.Background(), logs); err != nil {
		t.Fatalf("InsertLogs() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestLogRepository_Recent(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := database.NewLogRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM scraping_logs").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{
			"org_name", "error_code", "error_message",
			"scraped_count", "new_count", "inserted_count", "time",
		}).
			AddRow("광진구", nil, nil, 20, 17, 17, now).
			AddRow("서초구", 400, "request failed", 5, 0, 0, now))

	logs, err := repo.Recent(context.Background(), 50)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].Error != nil {
		t.Error("expected first log to have no error")
	}
	if logs[1].ErrorCodeValue() != domain.CodeNetworkError {
		t.Errorf("expected NETWORK_ERROR, got %v", logs[1].ErrorCodeValue())
	}

	expectationsMet(t, mock)
}
