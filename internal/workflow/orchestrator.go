package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/bidcrawl/internal/database"
	"github.com/jonesrussell/bidcrawl/internal/domain"
	"github.com/jonesrussell/bidcrawl/internal/logger"
	"github.com/jonesrussell/bidcrawl/internal/scraper"
	"github.com/jonesrussell/bidcrawl/internal/settings"
)

// DefaultWorkers bounds organization concurrency when none is configured.
const DefaultWorkers = 5

// Options configures one run.
type Options struct {
	// Org restricts the run to a single organization when non-empty.
	Org string
	// Limit caps how many organizations participate; 0 means all.
	Limit int
	// DryRun collects and counts without persisting anything.
	DryRun bool
}

// Orchestrator coordinates runs across organizations.
type Orchestrator struct {
	collector  Collector
	settings   SettingsSource
	notices    NoticeStore
	logs       LogStore
	categories CategorySource
	log        logger.Interface

	workers    int
	runTimeout time.Duration
	now        func() time.Time
}

// Config holds orchestrator construction parameters.
type Config struct {
	Collector  Collector
	Settings   SettingsSource
	Notices    NoticeStore
	Logs       LogStore
	Categories CategorySource
	Logger     logger.Interface

	Workers    int
	RunTimeout time.Duration
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Orchestrator{
		collector:  cfg.Collector,
		settings:   cfg.Settings,
		notices:    cfg.Notices,
		logs:       cfg.Logs,
		categories: cfg.Categories,
		log:        cfg.Logger,
		workers:    workers,
		runTimeout: cfg.RunTimeout,
		now:        time.Now,
	}
}

// Run executes one list collection run and returns the aggregate result.
// Per-organization failures are recorded in the result without failing the
// run; only setup problems (no resolvable settings, audit write failure)
// flip Success off.
func (o *Orchestrator) Run(ctx context.Context, opts Options) *domain.WorkflowResult {
	if o.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.runTimeout)
		defer cancel()
	}

	configs, result := o.resolveSettings(ctx, opts)
	if result != nil {
		return result
	}

	classifier := o.loadClassifier(ctx)

	logs := make([]domain.ScrapingLog, len(configs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, o.workers)

	for i, cfg := range configs {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, cfg *domain.ScrapingSettings) {
			defer wg.Done()
			defer func() { <-sem }()

			logs[i] = o.runOrg(ctx, cfg, classifier, opts.DryRun)
		}(i, cfg)
	}

	wg.Wait()

	return o.finish(ctx, logs, opts.DryRun)
}

// resolveSettings loads the participating settings rows. A non-nil result
// means the run cannot proceed and carries the failure.
func (o *Orchestrator) resolveSettings(
	ctx context.Context,
	opts Options,
) ([]*domain.ScrapingSettings, *domain.WorkflowResult) {
	if opts.Org != "" {
		cfg, err := o.settings.GetByOrg(ctx, opts.Org)
		if err != nil {
			return nil, o.setupFailure(err)
		}
		return []*domain.ScrapingSettings{cfg}, nil
	}

	configs, err := o.settings.ListActive(ctx)
	if err != nil {
		return nil, o.setupFailure(err)
	}
	if len(configs) == 0 {
		return nil, o.setupFailure(database.ErrNoSettings)
	}

	if opts.Limit > 0 && len(configs) > opts.Limit {
		configs = configs[:opts.Limit]
	}

	return configs, nil
}

// setupFailure builds the result for a run that never started.
func (o *Orchestrator) setupFailure(err error) *domain.WorkflowResult {
	code := domain.CodeDatabaseError
	if errors.Is(err, database.ErrNoSettings) {
		code = domain.CodeSettingsNotFound
	}

	o.log.Error("run setup failed", "error", err.Error())

	return &domain.WorkflowResult{
		Success:      false,
		ErrorCode:    code,
		ErrorMessage: err.Error(),
	}
}

// loadClassifier builds the category classifier. Category rules are
// enrichment; failing to load them degrades to an unclassified run rather
// than failing it.
func (o *Orchestrator) loadClassifier(ctx context.Context) *scraper.Classifier {
	configs, err := o.categories.ListAll(ctx)
	if err != nil {
		o.log.Warn("category settings unavailable, skipping classification",
			"error", err.Error())
		return scraper.NewClassifier(nil)
	}
	return scraper.NewClassifier(configs)
}

// runOrg executes one organization's pipeline and always produces its audit
// record, failed or not.
func (o *Orchestrator) runOrg(
	ctx context.Context,
	cfg *domain.ScrapingSettings,
	classifier *scraper.Classifier,
	dryRun bool,
) domain.ScrapingLog {
	log := domain.ScrapingLog{OrgName: cfg.OrgName, Time: o.now()}

	o.log.Debug("organization state", "org_name", cfg.OrgName, "state", domain.OrgStatePending)

	mapping, err := parseListMapping(cfg)
	if err != nil {
		return o.failOrg(log, domain.CodeSettingsNotFound, err)
	}

	o.log.Debug("organization state", "org_name", cfg.OrgName, "state", domain.OrgStateFetching)

	known, err := o.notices.KnownKeys(ctx, cfg.OrgName)
	if err != nil {
		return o.failOrg(log, domain.CodeDatabaseError, err)
	}

	outcome := o.collector.CollectList(ctx, cfg, mapping, known)
	log.ScrapedCount = outcome.ScrapedCount

	if outcome.Failed() {
		log.Error = &domain.ScrapingError{
			ErrorCode:    outcome.ErrorCode,
			ErrorMessage: outcome.ErrorMessage,
		}
		if outcome.ScrapedCount == 0 {
			o.log.Debug("organization state",
				"org_name", cfg.OrgName, "state", domain.OrgStateFailed)
			return log
		}
		// Partial data survives the failure; fall through and persist it.
	}

	o.log.Debug("organization state", "org_name", cfg.OrgName, "state", domain.OrgStateExtracting)
	classifier.Apply(outcome.Notices)

	o.log.Debug("organization state", "org_name", cfg.OrgName, "state", domain.OrgStateDeduping)
	fresh := filterNew(outcome.Notices, known)
	log.NewCount = len(fresh)

	if dryRun {
		o.log.Info("dry run, skipping persistence",
			"org_name", cfg.OrgName, "scraped", log.ScrapedCount, "new", log.NewCount)
		return log
	}

	o.log.Debug("organization state", "org_name", cfg.OrgName, "state", domain.OrgStatePersisting)

	accepted, err := o.notices.Upsert(ctx, dropExcluded(fresh))
	log.InsertedCount = len(accepted)
	if err != nil && log.Error == nil {
		return o.failOrg(log, domain.CodeDatabaseError, err)
	}

	o.log.Debug("organization state", "org_name", cfg.OrgName, "state", stateOf(&log))
	o.log.Info("organization finished",
		"org_name", cfg.OrgName,
		"scraped", log.ScrapedCount, "new", log.NewCount, "inserted", log.InsertedCount,
		"error_code", log.ErrorCodeValue().String())

	return log
}

// failOrg stamps a failure onto the audit record.
func (o *Orchestrator) failOrg(
	log domain.ScrapingLog,
	code domain.ErrorCode,
	err error,
) domain.ScrapingLog {
	log.Error = &domain.ScrapingError{ErrorCode: code, ErrorMessage: err.Error()}

	o.log.Error("organization failed",
		"org_name", log.OrgName, "error_code", code.String(), "error", err.Error())

	return log
}

// finish aggregates per-organization logs, persists the audit records, and
// builds the run result.
func (o *Orchestrator) finish(
	ctx context.Context,
	logs []domain.ScrapingLog,
	dryRun bool,
) *domain.WorkflowResult {
	result := &domain.WorkflowResult{
		Success:       true,
		Organizations: len(logs),
		Logs:          logs,
	}

	var failedOrgs []string
	for i := range logs {
		l := &logs[i]
		result.ScrapedCount += l.ScrapedCount
		result.NewCount += l.NewCount
		result.InsertedCount += l.InsertedCount

		if l.Error != nil {
			failedOrgs = append(failedOrgs, l.OrgName)
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: %s", l.OrgName, l.Error.ErrorMessage))
		}
	}
	sort.Strings(failedOrgs)

	if dryRun {
		return result
	}

	if err := o.logs.InsertLogs(ctx, logs); err != nil {
		result.Success = false
		result.ErrorCode = domain.CodeDatabaseError
		result.ErrorMessage = err.Error()
		return result
	}

	if len(failedOrgs) > 0 {
		rec := &domain.RunErrors{Orgs: strings.Join(failedOrgs, ","), Time: o.now()}
		if err := o.logs.InsertRunErrors(ctx, rec); err != nil {
			result.Success = false
			result.ErrorCode = domain.CodeDatabaseError
			result.ErrorMessage = err.Error()
		}
	}

	return result
}

// parseListMapping compiles and validates an organization's list rules.
func parseListMapping(cfg *domain.ScrapingSettings) (*settings.Mapping, error) {
	mapping, err := settings.ParseElements(cfg.Elements)
	if err != nil {
		return nil, err
	}
	if err := mapping.RequireListFields(); err != nil {
		return nil, err
	}
	return mapping, nil
}

// dropExcluded removes notices classified into the marker category.
func dropExcluded(notices []domain.Notice) []domain.Notice {
	kept := make([]domain.Notice, 0, len(notices))
	for i := range notices {
		if notices[i].Category != nil && *notices[i].Category == scraper.CategoryExcluded {
			continue
		}
		kept = append(kept, notices[i])
	}
	return kept
}

// filterNew keeps notices whose key the store has not seen.
func filterNew(notices []domain.Notice, known map[string]struct{}) []domain.Notice {
	fresh := make([]domain.Notice, 0, len(notices))
	for i := range notices {
		if _, ok := known[notices[i].Key()]; !ok {
			fresh = append(fresh, notices[i])
		}
	}
	return fresh
}

func stateOf(log *domain.ScrapingLog) domain.OrgState {
	if log.Error != nil {
		return domain.OrgStateFailed
	}
	return domain.OrgStateDone
}
