// Package workflow orchestrates scraping runs across organizations: a
// bounded worker pool drives each organization's pipeline and the outcomes
// are aggregated into one run result.
package workflow

import (
	"context"

	"github.com/jonesrussell/bidcrawl/internal/domain"
	"github.com/jonesrussell/bidcrawl/internal/scraper"
	"github.com/jonesrussell/bidcrawl/internal/settings"
)

// SettingsSource provides the per-organization scraping settings.
type SettingsSource interface {
	ListActive(ctx context.Context) ([]*domain.ScrapingSettings, error)
	GetByOrg(ctx context.Context, orgName string) (*domain.ScrapingSettings, error)
}

// NoticeStore persists collected notices.
type NoticeStore interface {
	KnownKeys(ctx context.Context, orgName string) (map[string]struct{}, error)
	Upsert(ctx context.Context, notices []domain.Notice) ([]string, error)
	PendingDetails(ctx context.Context, orgName string, limit int) ([]*domain.Notice, error)
	UpdateDetail(ctx context.Context, notice *domain.Notice) error
}

// LogStore persists run audit records.
type LogStore interface {
	InsertLogs(ctx context.Context, logs []domain.ScrapingLog) error
	InsertRunErrors(ctx context.Context, rec *domain.RunErrors) error
}

// CategorySource provides the category keyword rules.
type CategorySource interface {
	ListAll(ctx context.Context) ([]domain.CategorySetting, error)
}

// Collector runs the per-organization scraping pipeline.
type Collector interface {
	CollectList(
		ctx context.Context,
		cfg *domain.ScrapingSettings,
		mapping *settings.Mapping,
		known map[string]struct{},
	) *scraper.ListOutcome
	CollectDetails(
		ctx context.Context,
		cfg *domain.ScrapingSettings,
		mapping *settings.Mapping,
		pending []*domain.Notice,
	) *scraper.DetailOutcome
}
