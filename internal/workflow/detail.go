package workflow

import (
	"context"
	"fmt"

	"github.com/jonesrussell/bidcrawl/internal/domain"
	"github.com/jonesrussell/bidcrawl/internal/settings"
)

// DefaultDetailBatch caps pending notices fetched per organization when no
// limit is given.
const DefaultDetailBatch = 50

// RunDetails executes one detail enrichment pass. Organizations without
// detail rules are skipped. opts.Limit caps the pending batch per
// organization.
func (o *Orchestrator) RunDetails(ctx context.Context, opts Options) *domain.WorkflowResult {
	if o.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.runTimeout)
		defer cancel()
	}

	configs, result := o.resolveSettings(ctx, Options{Org: opts.Org})
	if result != nil {
		return result
	}

	batch := opts.Limit
	if batch <= 0 {
		batch = DefaultDetailBatch
	}

	out := &domain.WorkflowResult{Success: true}

	for _, cfg := range configs {
		if cfg.DetailElements == nil || *cfg.DetailElements == "" {
			continue
		}
		out.Organizations++

		log := o.runOrgDetails(ctx, cfg, batch, opts.DryRun)
		out.Logs = append(out.Logs, log)
		out.ScrapedCount += log.ScrapedCount
		out.InsertedCount += log.InsertedCount

		if log.Error != nil {
			out.Errors = append(out.Errors,
				fmt.Sprintf("%s: %s", log.OrgName, log.Error.ErrorMessage))
		}
	}

	return out
}

// runOrgDetails enriches one organization's pending notices. The audit
// record reuses the list-run shape: scraped counts pages fetched, inserted
// counts stored updates.
func (o *Orchestrator) runOrgDetails(
	ctx context.Context,
	cfg *domain.ScrapingSettings,
	batch int,
	dryRun bool,
) domain.ScrapingLog {
	log := domain.ScrapingLog{OrgName: cfg.OrgName, Time: o.now()}

	mapping, err := settings.ParseElements(*cfg.DetailElements)
	if err != nil {
		return o.failOrg(log, domain.CodeSettingsNotFound, err)
	}

	pending, err := o.notices.PendingDetails(ctx, cfg.OrgName, batch)
	if err != nil {
		return o.failOrg(log, domain.CodeDatabaseError, err)
	}
	if len(pending) == 0 {
		return log
	}

	outcome := o.collector.CollectDetails(ctx, cfg, mapping, pending)
	log.ScrapedCount = len(outcome.Enriched)

	if outcome.ErrorCode != domain.CodeSuccess {
		log.Error = &domain.ScrapingError{
			ErrorCode:    outcome.ErrorCode,
			ErrorMessage: outcome.ErrorMessage,
		}
	}

	if dryRun {
		return log
	}

	for _, notice := range outcome.Enriched {
		if updateErr := o.notices.UpdateDetail(ctx, notice); updateErr != nil {
			if log.Error == nil {
				log.Error = &domain.ScrapingError{
					ErrorCode:    domain.CodeDatabaseError,
					ErrorMessage: updateErr.Error(),
				}
			}
			continue
		}
		log.InsertedCount++
	}

	o.log.Info("detail pass finished",
		"org_name", cfg.OrgName,
		"pending", len(pending), "enriched", log.ScrapedCount,
		"stored", log.InsertedCount, "failed", outcome.FailedCount)

	return log
}
