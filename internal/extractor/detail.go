package extractor

import (
	"bytes"
	"fmt"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/jonesrussell/bidcrawl/internal/domain"
	"github.com/jonesrussell/bidcrawl/internal/logger"
	"github.com/jonesrussell/bidcrawl/internal/settings"
)

// bodyHTMLField is the detail rule key whose value keeps its markup.
const bodyHTMLField = "body_html"

// DetailExtractor extracts enrichment fields from one notice's detail page.
type DetailExtractor struct {
	log logger.Interface
}

// NewDetail creates a detail extractor.
func NewDetail(log logger.Interface) *DetailExtractor {
	return &DetailExtractor{log: log}
}

// Extract applies the organization's detail-mode mapping against the whole
// document and returns a partial notice carrying only enrichment fields.
// Missing fields are left unset; merging them later is a no-op.
func (e *DetailExtractor) Extract(
	body []byte,
	pageURL, orgName string,
	mapping *settings.Mapping,
) (*domain.Notice, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	enrichment := &domain.Notice{OrgName: orgName}

	for _, rule := range mapping.Rules() {
		node, findErr := findOne(doc, rule.XPath)
		if findErr != nil {
			return nil, findErr
		}
		if node == nil {
			e.log.Debug("detail field not found",
				"org_name", orgName, "field", rule.Key, "page_url", pageURL)
			continue
		}

		enrichment.SetField(rule.Key, detailValue(node, rule, pageURL))
	}

	return enrichment, nil
}

// detailValue reads a detail field, keeping markup for the body field and
// resolving file URLs against the page.
func detailValue(node *html.Node, rule settings.FieldRule, pageURL string) string {
	if rule.Key == bodyHTMLField && rule.Target == "" {
		return htmlquery.OutputHTML(node, false)
	}

	value := nodeValue(node, rule)
	if rule.Callback != "" {
		value = settings.ApplyCallback(rule.Callback, value, pageURL)
	}
	if rule.Key == "file_url" {
		value = settings.AbsoluteURL(value, pageURL)
	}
	return value
}
