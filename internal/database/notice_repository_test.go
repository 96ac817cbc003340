package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/bidcrawl/internal/database"
	"github.com/jonesrussell/bidcrawl/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	return sqlx.NewDb(mockDB, "postgres"), mock, func() { mockDB.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestNoticeRepository_KnownKeys(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := database.NewNoticeRepository(db)

	mock.ExpectQuery("SELECT detail_url FROM notices WHERE org_name").
		WithArgs("광진구").
		WillReturnRows(sqlmock.NewRows([]string{"detail_url"}).
			AddRow("https://a/1").
			AddRow("https://a/2"))

	keys, err := repo.KnownKeys(context.Background(), "광진구")
	if err != nil {
		t.Fatalf("KnownKeys() error = %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if _, ok := keys["https://a/1"]; !ok {
		t.Error("expected https://a/1 to be known")
	}

	expectationsMet(t, mock)
}

func TestNoticeRepository_Upsert_SkipsInvalidAndAssignsNID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := database.NewNoticeRepository(db)

	// Only the valid notice reaches the database.
	mock.ExpectQuery("INSERT INTO notices").
		WillReturnRows(sqlmock.NewRows([]string{"detail_url"}).AddRow("https://a/1"))

	notices := []domain.Notice{
		{Title: "공고", DetailURL: "https://a/1", OrgName: "광진구", ScrapedAt: time.Now()},
		{Title: "", DetailURL: "https://a/2", OrgName: "광진구", ScrapedAt: time.Now()},
	}

	accepted, err := repo.Upsert(context.Background(), notices)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if len(accepted) != 1 || accepted[0] != "https://a/1" {
		t.Errorf("expected accepted=[https://a/1], got %v", accepted)
	}
	if notices[0].NID == "" {
		t.Error("expected NID to be assigned on insert")
	}

	expectationsMet(t, mock)
}

func TestNoticeRepository_UpdateDetail_NotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := database.NewNoticeRepository(db)

	mock.ExpectExec("UPDATE notices").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n := &domain.Notice{OrgName: "광진구", DetailURL: "https://a/9"}
	if err := repo.UpdateDetail(context.Background(), n); err == nil {
		t.Error("expected error for missing notice")
	}

	expectationsMet(t, mock)
}

func TestNoticeRepository_GetByKey(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := database.NewNoticeRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM notices").
		WithArgs("광진구", "https://a/1").
		WillReturnRows(sqlmock.NewRows([]string{
			"nid", "title", "detail_url", "posted_date", "posted_by",
			"org_name", "org_region", "category", "registration", "scraped_at",
			"error_code", "budget_amount", "deadline", "contact", "body_html",
			"file_name", "file_url", "notice_division", "notice_number",
			"org_dept", "org_man", "org_tel", "detail_scraped_at",
		}).AddRow(
			"nid-1", "공고", "https://a/1", "2026-08-14", nil,
			"광진구", nil, nil, 0, now,
			nil, nil, nil, nil, nil,
			nil, nil, nil, nil,
			nil, nil, nil, nil,
		))

	n, err := repo.GetByKey(context.Background(), "광진구", "https://a/1")
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if n.Title != "공고" {
		t.Errorf("expected title=공고, got %s", n.Title)
	}

	expectationsMet(t, mock)
}

func TestNoticeRepository_PendingDetails(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := database.NewNoticeRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM notices").
		WithArgs("광진구", 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"nid", "title", "detail_url", "posted_date", "posted_by",
			"org_name", "org_region", "category", "registration", "scraped_at",
			"error_code", "budget_amount", "deadline", "contact", "body_html",
			"file_name", "file_url", "notice_division", "notice_number",
			"org_dept", "org_man", "org_tel", "detail_scraped_at",
		}).AddRow(
			"nid-1", "공고", "https://a/1", "2026-08-14", nil,
			"광진구", nil, nil, 0, now,
			nil, nil, nil, nil, nil,
			nil, nil, nil, nil,
			nil, nil, nil, nil,
		))

	rows, err := repo.PendingDetails(context.Background(), "광진구", 10)
	if err != nil {
		t.Fatalf("PendingDetails() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].DetailScrapedAt != nil {
		t.Error("expected DetailScrapedAt to be nil")
	}

	expectationsMet(t, mock)
}
