// Package common wires the shared dependencies subcommands build on.
package common

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/bidcrawl/internal/config"
	"github.com/jonesrussell/bidcrawl/internal/database"
	"github.com/jonesrussell/bidcrawl/internal/fetcher"
	"github.com/jonesrussell/bidcrawl/internal/logger"
	"github.com/jonesrussell/bidcrawl/internal/ratelimit"
	"github.com/jonesrussell/bidcrawl/internal/scraper"
	"github.com/jonesrussell/bidcrawl/internal/workflow"
)

// Deps holds the dependency graph shared by the subcommands.
type Deps struct {
	Cfg *config.Config
	Log logger.Interface
	DB  *sqlx.DB

	Settings   *database.SettingsRepository
	Notices    *database.NoticeRepository
	Logs       *database.LogRepository
	Categories *database.CategoryRepository

	Orchestrator *workflow.Orchestrator
}

// Build loads configuration and constructs the full dependency graph.
func Build() (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Development: cfg.Logger.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, err
	}

	deps := &Deps{
		Cfg:        cfg,
		Log:        log,
		DB:         db,
		Settings:   database.NewSettingsRepository(db),
		Notices:    database.NewNoticeRepository(db),
		Logs:       database.NewLogRepository(db),
		Categories: database.NewCategoryRepository(db),
	}

	client := fetcher.New(fetcher.Config{
		UserAgent:       cfg.Scraper.UserAgent,
		MaxRetries:      cfg.Scraper.MaxRetries,
		RetryBaseDelay:  cfg.Scraper.RetryBaseDelay,
		RequestTimeout:  cfg.Scraper.RequestTimeout,
		MaxResponseSize: cfg.Scraper.MaxResponseSize,
	}, ratelimit.NewHostLimiter(cfg.Scraper.HostMinDelay), log)

	deps.Orchestrator = workflow.New(workflow.Config{
		Collector:  scraper.NewDispatcher(scraper.New(client, log)),
		Settings:   deps.Settings,
		Notices:    deps.Notices,
		Logs:       deps.Logs,
		Categories: deps.Categories,
		Logger:     log,
		Workers:    cfg.Scraper.Workers,
		RunTimeout: cfg.Scraper.RunTimeout,
	})

	return deps, nil
}

// Close releases held resources.
func (d *Deps) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
