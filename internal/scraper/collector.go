// Package scraper runs the per-organization collection pipeline: paginated
// list scraping, detail enrichment, and category classification.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/bidcrawl/internal/domain"
	"github.com/jonesrussell/bidcrawl/internal/extractor"
	"github.com/jonesrussell/bidcrawl/internal/fetcher"
	"github.com/jonesrussell/bidcrawl/internal/logger"
	"github.com/jonesrussell/bidcrawl/internal/settings"
)

// ListOutcome is one organization's list collection result. Data extracted
// before a failure is retained alongside the error code.
type ListOutcome struct {
	// Notices holds the unique candidates collected, oldest first.
	Notices []domain.Notice
	// ScrapedCount counts every usable row extracted across pages,
	// cross-page duplicates included.
	ScrapedCount int
	// PagesFetched counts pages actually requested.
	PagesFetched int

	ErrorCode    domain.ErrorCode
	ErrorMessage string
}

// Failed reports whether collection ended with a non-success code.
func (o *ListOutcome) Failed() bool {
	return o.ErrorCode != domain.CodeSuccess
}

// Scraper drives fetching and extraction for single organizations.
type Scraper struct {
	client *fetcher.Client
	list   *extractor.ListExtractor
	detail *extractor.DetailExtractor
	log    logger.Interface
	now    func() time.Time

	// canonKey rewrites detail URLs before dedup for source families
	// whose links carry volatile state. Nil for ordinary sites.
	canonKey func(string) string
}

// New creates a scraper.
func New(client *fetcher.Client, log logger.Interface) *Scraper {
	return &Scraper{
		client: client,
		list:   extractor.NewList(log),
		detail: extractor.NewDetail(log),
		log:    log,
		now:    time.Now,
	}
}

// CollectList walks the organization's page range and extracts notice
// candidates. known holds the store's existing keys for the organization;
// pagination stops early once a page contributes nothing unseen. A page-level
// fetch failure keeps the data collected so far and reports the failure code.
func (s *Scraper) CollectList(
	ctx context.Context,
	cfg *domain.ScrapingSettings,
	mapping *settings.Mapping,
	known map[string]struct{},
) *ListOutcome {
	outcome := &ListOutcome{}

	session, err := s.client.NewSession(cfg)
	if err != nil {
		outcome.ErrorCode = domain.CodeScrapingFailed
		outcome.ErrorMessage = err.Error()
		return outcome
	}

	start, end := cfg.StartPage, cfg.EndPage
	if start < 1 {
		start = 1
	}

	scrapedAt := s.now()
	seen := make(map[string]struct{})

	for page := start; page <= end; page++ {
		body, pageURL, fetchErr := session.FetchListPage(ctx, page)
		if fetchErr != nil {
			outcome.ErrorCode = classifyFetchError(fetchErr)
			outcome.ErrorMessage = fetchErr.Error()
			break
		}
		outcome.PagesFetched++

		result, extractErr := s.list.Extract(body, pageURL, cfg, mapping, scrapedAt)
		if extractErr != nil {
			outcome.ErrorCode = domain.CodeScrapingFailed
			outcome.ErrorMessage = extractErr.Error()
			break
		}

		if result.RowsMatched == 0 {
			s.log.Debug("page matched no rows, stopping pagination",
				"org_name", cfg.OrgName, "page", page)
			break
		}

		outcome.ScrapedCount += len(result.Notices)

		unseen := 0
		for i := range result.Notices {
			if s.canonKey != nil {
				result.Notices[i].DetailURL = s.canonKey(result.Notices[i].DetailURL)
			}
			key := result.Notices[i].Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			outcome.Notices = append(outcome.Notices, result.Notices[i])

			if _, old := known[key]; !old {
				unseen++
			}
		}

		if unseen == 0 {
			s.log.Debug("page contributed nothing unseen, stopping pagination",
				"org_name", cfg.OrgName, "page", page)
			break
		}
	}

	// Zero rows is a scraping failure only when a page was actually
	// requested; an empty page range is a valid, empty run.
	if outcome.PagesFetched > 0 && outcome.ScrapedCount == 0 && !outcome.Failed() {
		outcome.ErrorCode = domain.CodeScrapingFailed
		outcome.ErrorMessage = fmt.Sprintf("no data extracted for %s", cfg.OrgName)
		return outcome
	}

	// Oldest first, so insertion order follows posting order.
	reverse(outcome.Notices)

	return outcome
}

// withKeyCanonicalizer returns a copy whose collected detail URLs pass
// through fn before dedup.
func (s *Scraper) withKeyCanonicalizer(fn func(string) string) *Scraper {
	c := *s
	c.canonKey = fn
	return &c
}

// classifyFetchError maps fetch failures onto the error taxonomy.
func classifyFetchError(err error) domain.ErrorCode {
	if errors.Is(err, fetcher.ErrNetwork) {
		return domain.CodeNetworkError
	}
	return domain.CodeScrapingFailed
}

func reverse(notices []domain.Notice) {
	for i, j := 0, len(notices)-1; i < j; i, j = i+1, j-1 {
		notices[i], notices[j] = notices[j], notices[i]
	}
}
