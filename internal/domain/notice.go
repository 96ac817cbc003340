package domain

import "time"

// Notice is one collected bid/procurement announcement. Instances are built
// fresh per run and persisted by upsert; a re-scrape replaces the stored
// record for the same (org_name, detail_url) key instead of mutating it.
type Notice struct {
	NID        string    `db:"nid"         json:"nid"`
	Title      string    `db:"title"       json:"title"`
	DetailURL  string    `db:"detail_url"  json:"detailUrl"`
	PostedDate string    `db:"posted_date" json:"postedAt"`
	PostedBy   *string   `db:"posted_by"   json:"postedBy,omitempty"`
	OrgName    string    `db:"org_name"    json:"orgName"`
	OrgRegion  *string   `db:"org_region"  json:"region,omitempty"`
	Category   *string   `db:"category"    json:"category,omitempty"`
	Registration int     `db:"registration" json:"registration"`
	ScrapedAt  time.Time `db:"scraped_at"  json:"scrapedAt"`
	ErrorCode  *int      `db:"error_code"  json:"errorCode,omitempty"`

	// List-time enrichment, present when the site exposes them on the
	// list page.
	BudgetAmount *string `db:"budget_amount" json:"budgetAmount,omitempty"`
	Deadline     *string `db:"deadline"      json:"deadline,omitempty"`
	Contact      *string `db:"contact"       json:"contact,omitempty"`

	// Detail-page enrichment, filled by the detail pipeline.
	BodyHTML       *string    `db:"body_html"       json:"bodyHtml,omitempty"`
	FileName       *string    `db:"file_name"       json:"fileName,omitempty"`
	FileURL        *string    `db:"file_url"        json:"fileUrl,omitempty"`
	NoticeDivision *string    `db:"notice_division" json:"noticeDivision,omitempty"`
	NoticeNumber   *string    `db:"notice_number"   json:"noticeNumber,omitempty"`
	OrgDept        *string    `db:"org_dept"        json:"orgDept,omitempty"`
	OrgManager     *string    `db:"org_man"         json:"orgManager,omitempty"`
	OrgTel         *string    `db:"org_tel"         json:"orgTel,omitempty"`
	DetailScrapedAt *time.Time `db:"detail_scraped_at" json:"detailScrapedAt,omitempty"`
}

// Key returns the dedup key for the notice within its organization.
func (n *Notice) Key() string {
	return n.DetailURL
}

// Valid reports whether the notice satisfies the store's minimum record
// requirements. Invalid notices are rejected at persistence, which is how
// inserted_count can fall below new_count.
func (n *Notice) Valid() bool {
	return n.Title != "" && n.DetailURL != ""
}

// SetField assigns an extracted value to the notice field named by key.
// Unknown keys are ignored so organization-specific extra rules do not fail
// extraction.
func (n *Notice) SetField(key, value string) {
	switch key {
	case "title":
		n.Title = value
	case "detail_url":
		n.DetailURL = value
	case "posted_date":
		n.PostedDate = value
	case "posted_by":
		n.PostedBy = strPtr(value)
	case "budget_amount":
		n.BudgetAmount = strPtr(value)
	case "deadline":
		n.Deadline = strPtr(value)
	case "contact":
		n.Contact = strPtr(value)
	case "body_html":
		n.BodyHTML = strPtr(value)
	case "file_name":
		n.FileName = strPtr(value)
	case "file_url":
		n.FileURL = strPtr(value)
	case "notice_division":
		n.NoticeDivision = strPtr(value)
	case "notice_number":
		n.NoticeNumber = strPtr(value)
	case "org_dept":
		n.OrgDept = strPtr(value)
	case "org_man":
		n.OrgManager = strPtr(value)
	case "org_tel":
		n.OrgTel = strPtr(value)
	}
}

// MergeDetail copies detail-page enrichment from src, leaving identity and
// list fields untouched. Repeated merges are idempotent.
func (n *Notice) MergeDetail(src *Notice) {
	if src.BodyHTML != nil {
		n.BodyHTML = src.BodyHTML
	}
	if src.FileName != nil {
		n.FileName = src.FileName
	}
	if src.FileURL != nil {
		n.FileURL = src.FileURL
	}
	if src.NoticeDivision != nil {
		n.NoticeDivision = src.NoticeDivision
	}
	if src.NoticeNumber != nil {
		n.NoticeNumber = src.NoticeNumber
	}
	if src.OrgDept != nil {
		n.OrgDept = src.OrgDept
	}
	if src.OrgManager != nil {
		n.OrgManager = src.OrgManager
	}
	if src.OrgTel != nil {
		n.OrgTel = src.OrgTel
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
