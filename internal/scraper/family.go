package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/jonesrussell/bidcrawl/internal/domain"
	"github.com/jonesrussell/bidcrawl/internal/settings"
)

// SourceFamily identifies a class of notice sites that share collection
// behavior.
type SourceFamily string

// The closed set of source families.
const (
	// FamilyGov covers ordinary government and public-agency board sites.
	FamilyGov SourceFamily = "gov"
	// FamilyNara covers the national procurement portal, whose detail
	// links carry volatile session state.
	FamilyNara SourceFamily = "nara"
)

// naraRegistration is the registration flag value marking procurement-portal
// organizations.
const naraRegistration = 2

// FamilyOf returns the source family for a settings row.
func FamilyOf(cfg *domain.ScrapingSettings) SourceFamily {
	if cfg.Registration == naraRegistration {
		return FamilyNara
	}
	return FamilyGov
}

// Source is the per-family collection capability.
type Source interface {
	CollectList(
		ctx context.Context,
		cfg *domain.ScrapingSettings,
		mapping *settings.Mapping,
		known map[string]struct{},
	) *ListOutcome
	CollectDetails(
		ctx context.Context,
		cfg *domain.ScrapingSettings,
		mapping *settings.Mapping,
		pending []*domain.Notice,
	) *DetailOutcome
}

// Dispatcher routes each organization to its family's Source through a fixed
// table. It implements the same capability interface, so callers never see
// the family split.
type Dispatcher struct {
	families map[SourceFamily]Source
}

// NewDispatcher builds the dispatch table over a shared scraper.
func NewDispatcher(s *Scraper) *Dispatcher {
	return &Dispatcher{
		families: map[SourceFamily]Source{
			FamilyGov:  s,
			FamilyNara: s.withKeyCanonicalizer(canonicalDetailURL),
		},
	}
}

// CollectList dispatches list collection by family.
func (d *Dispatcher) CollectList(
	ctx context.Context,
	cfg *domain.ScrapingSettings,
	mapping *settings.Mapping,
	known map[string]struct{},
) *ListOutcome {
	return d.families[FamilyOf(cfg)].CollectList(ctx, cfg, mapping, known)
}

// CollectDetails dispatches detail collection by family.
func (d *Dispatcher) CollectDetails(
	ctx context.Context,
	cfg *domain.ScrapingSettings,
	mapping *settings.Mapping,
	pending []*domain.Notice,
) *DetailOutcome {
	return d.families[FamilyOf(cfg)].CollectDetails(ctx, cfg, mapping, pending)
}

// canonicalDetailURL strips the jsessionid path parameter so the dedup key
// is stable across visits.
func canonicalDetailURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if idx := strings.Index(u.Path, ";jsessionid="); idx >= 0 {
		u.Path = u.Path[:idx]
	}

	return u.String()
}
