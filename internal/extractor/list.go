// Package extractor turns fetched HTML documents into notices by applying
// per-organization field rules.
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/jonesrussell/bidcrawl/internal/domain"
	"github.com/jonesrussell/bidcrawl/internal/logger"
	"github.com/jonesrussell/bidcrawl/internal/settings"
)

// ErrParse marks documents that could not be parsed as HTML.
var ErrParse = errors.New("parse html")

// PageResult is the outcome of extracting one list page.
type PageResult struct {
	// Notices holds the usable candidates in document order.
	Notices []domain.Notice
	// RowsMatched counts rows the row selector found, before skipping.
	RowsMatched int
	// RowsSkipped counts rows dropped for missing required fields.
	RowsSkipped int
}

// ListExtractor applies a settings row's field rules across list-page rows.
type ListExtractor struct {
	log logger.Interface
}

// NewList creates a list extractor.
func NewList(log logger.Interface) *ListExtractor {
	return &ListExtractor{log: log}
}

// Extract selects rows via the row selector, skips exception rows, and
// applies every field rule relative to each row. A row whose required field
// extraction fails is skipped with a warning; it never aborts the page.
func (e *ListExtractor) Extract(
	body []byte,
	pageURL string,
	cfg *domain.ScrapingSettings,
	mapping *settings.Mapping,
	scrapedAt time.Time,
) (*PageResult, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	rows, err := findAll(doc, cfg.RowXpath)
	if err != nil {
		return nil, err
	}

	skip, err := exceptionSet(doc, cfg.ExceptionRowXpath())
	if err != nil {
		return nil, err
	}

	result := &PageResult{RowsMatched: len(rows)}

	for _, row := range rows {
		if skip[row] {
			continue
		}

		notice := e.extractRow(row, pageURL, cfg, mapping, scrapedAt)
		if notice.Title == "" {
			result.RowsSkipped++
			e.log.Warn("row skipped: no title extracted",
				"org_name", cfg.OrgName, "page_url", pageURL)
			continue
		}

		result.Notices = append(result.Notices, notice)
	}

	return result, nil
}

// extractRow builds one notice candidate from a row node.
func (e *ListExtractor) extractRow(
	row *html.Node,
	pageURL string,
	cfg *domain.ScrapingSettings,
	mapping *settings.Mapping,
	scrapedAt time.Time,
) domain.Notice {
	notice := domain.Notice{
		OrgName:      cfg.OrgName,
		OrgRegion:    cfg.OrgRegion,
		Registration: cfg.Registration,
		ScrapedAt:    scrapedAt,
	}

	for _, rule := range mapping.Rules() {
		value, err := extractField(row, rule, pageURL)
		if err != nil {
			// Field-level failures degrade to an empty value; the
			// row survives unless a required field ends up empty.
			e.log.Debug("field extraction failed",
				"org_name", cfg.OrgName, "field", rule.Key, "error", err.Error())
			continue
		}
		notice.SetField(rule.Key, value)
	}

	if notice.PostedDate != "" {
		notice.PostedDate = settings.NormalizeDate(notice.PostedDate, scrapedAt)
	}

	return notice
}

// extractField evaluates one rule relative to the row.
func extractField(row *html.Node, rule settings.FieldRule, pageURL string) (string, error) {
	node, err := findOne(row, rule.XPath)
	if err != nil {
		return "", err
	}
	if node == nil {
		return "", nil
	}

	value := nodeValue(node, rule)

	if rule.Callback != "" {
		value = settings.ApplyCallback(rule.Callback, value, pageURL)
	}

	if rule.Key == "detail_url" {
		value = settings.AbsoluteURL(value, pageURL)
	}

	return value, nil
}

// nodeValue reads the target attribute or the cleaned node text. detail_url
// rules default to the href attribute, matching how the rows are configured.
func nodeValue(node *html.Node, rule settings.FieldRule) string {
	target := rule.Target
	if target == "" && rule.Key == "detail_url" {
		target = "href"
	}

	if target != "" && target != "text" {
		return strings.TrimSpace(htmlquery.SelectAttr(node, target))
	}
	return settings.CleanText(htmlquery.InnerText(node))
}

// exceptionSet resolves the exception row selector into a node set.
func exceptionSet(doc *html.Node, selector string) (map[*html.Node]bool, error) {
	if selector == "" {
		return nil, nil
	}

	nodes, err := findAll(doc, selector)
	if err != nil {
		return nil, err
	}

	set := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		set[n] = true
	}
	return set, nil
}

// tableRowRe matches row steps that address tr as a direct child of table.
// The settings rows were written against parsers that kept that structure;
// html.Parse builds the HTML5 tree, where an implied tbody always sits in
// between, so those steps would match nothing without the rewrite.
var tableRowRe = regexp.MustCompile(`(table(?:\[[^\]]*\])?)/tr\b`)

func normalizeRowExpr(expr string) string {
	return tableRowRe.ReplaceAllString(expr, "$1/tbody/tr")
}

// findAll evaluates a row-set XPath expression from the settings rows.
func findAll(node *html.Node, expr string) ([]*html.Node, error) {
	expr = normalizeRowExpr(expr)

	nodes, err := htmlquery.QueryAll(node, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	return nodes, nil
}

func findOne(node *html.Node, expr string) (*html.Node, error) {
	// Rules written as "//a" mean "inside this row" in the settings
	// rows; make them explicit.
	if strings.HasPrefix(expr, "//") {
		expr = "." + expr
	}

	n, err := htmlquery.Query(node, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	return n, nil
}
