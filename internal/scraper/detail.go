package scraper

import (
	"context"

	"github.com/jonesrussell/bidcrawl/internal/domain"
	"github.com/jonesrussell/bidcrawl/internal/settings"
)

// DetailOutcome is one organization's detail enrichment result.
type DetailOutcome struct {
	// Enriched holds the notices whose detail pages were collected.
	Enriched []*domain.Notice
	// FailedCount counts notices whose detail fetch or extraction failed;
	// they stay pending for the next run.
	FailedCount int

	ErrorCode    domain.ErrorCode
	ErrorMessage string
}

// CollectDetails fetches each pending notice's detail page and extracts the
// organization's detail-mode fields onto it. A single notice's failure is
// counted and skipped; only a session-level failure aborts the batch.
func (s *Scraper) CollectDetails(
	ctx context.Context,
	cfg *domain.ScrapingSettings,
	mapping *settings.Mapping,
	pending []*domain.Notice,
) *DetailOutcome {
	outcome := &DetailOutcome{}

	session, err := s.client.NewSession(cfg)
	if err != nil {
		outcome.ErrorCode = domain.CodeScrapingFailed
		outcome.ErrorMessage = err.Error()
		return outcome
	}

	for _, notice := range pending {
		if ctx.Err() != nil {
			outcome.ErrorCode = domain.CodeNetworkError
			outcome.ErrorMessage = ctx.Err().Error()
			return outcome
		}

		body, fetchErr := session.FetchURL(ctx, notice.DetailURL)
		if fetchErr != nil {
			outcome.FailedCount++
			s.log.Warn("detail fetch failed",
				"org_name", cfg.OrgName, "detail_url", notice.DetailURL,
				"error", fetchErr.Error())
			continue
		}

		enrichment, extractErr := s.detail.Extract(body, notice.DetailURL, cfg.OrgName, mapping)
		if extractErr != nil {
			outcome.FailedCount++
			s.log.Warn("detail extraction failed",
				"org_name", cfg.OrgName, "detail_url", notice.DetailURL,
				"error", extractErr.Error())
			continue
		}

		notice.MergeDetail(enrichment)
		outcome.Enriched = append(outcome.Enriched, notice)
	}

	return outcome
}
