// Package domain defines the core types shared across the scraping engine.
package domain

// ScrapingSettings describes how one organization's notice list is scraped.
// Rows are owned by the settings admin surface; the engine treats them as
// immutable input.
type ScrapingSettings struct {
	OID             int64   `db:"oid"               json:"oid"`
	OrgName         string  `db:"org_name"          json:"org_name"`
	URL             string  `db:"url"               json:"url"`
	Iframe          *string `db:"iframe"            json:"iframe,omitempty"`
	RowXpath        string  `db:"row_xpath"         json:"rowXpath"`
	Paging          *string `db:"paging"            json:"paging,omitempty"`
	StartPage       int     `db:"start_page"        json:"startPage"`
	EndPage         int     `db:"end_page"          json:"endPage"`
	Login           *string `db:"login"             json:"login,omitempty"`
	OrgRegion       *string `db:"org_region"        json:"org_region,omitempty"`
	Registration    int     `db:"registration"      json:"registration"`
	Use             int     `db:"use"               json:"use"`
	CompanyInCharge *string `db:"company_in_charge" json:"company_in_charge,omitempty"`
	OrgMan          *string `db:"org_man"           json:"org_man,omitempty"`
	ExceptionRow    *string `db:"exception_row"     json:"exception_row,omitempty"`

	// Elements is a JSON-encoded ordered mapping of field key to
	// extraction rule for list pages.
	Elements string `db:"elements" json:"elements"`

	// DetailElements is the optional mapping for detail pages. Empty when
	// the organization has no detail collection configured.
	DetailElements *string `db:"detail_elements" json:"detail_elements,omitempty"`
}

// IsActive reports whether the organization participates in runs.
func (s *ScrapingSettings) IsActive() bool {
	return s.Use != 0
}

// IframeSelector returns the iframe selector or "" when not configured.
func (s *ScrapingSettings) IframeSelector() string {
	if s.Iframe == nil {
		return ""
	}
	return *s.Iframe
}

// PagingStrategy returns the paging strategy identifier or "" when not set.
func (s *ScrapingSettings) PagingStrategy() string {
	if s.Paging == nil {
		return ""
	}
	return *s.Paging
}

// LoginDescriptor returns the raw login descriptor or "" when not set.
func (s *ScrapingSettings) LoginDescriptor() string {
	if s.Login == nil {
		return ""
	}
	return *s.Login
}

// ExceptionRowXpath returns the selector for rows to skip or "".
func (s *ScrapingSettings) ExceptionRowXpath() string {
	if s.ExceptionRow == nil {
		return ""
	}
	return *s.ExceptionRow
}

// CategorySetting holds one keyword-scoring rule used to classify notices.
type CategorySetting struct {
	Category string `db:"category"  json:"category"`
	Keywords string `db:"keywords"  json:"keywords"`
	Nots     string `db:"nots"      json:"nots"`
	MinPoint int    `db:"min_point" json:"min_point"`
}
