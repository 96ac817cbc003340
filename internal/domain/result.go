package domain

import "time"

// ErrorCode is the fixed failure taxonomy for scraping runs.
type ErrorCode int

// Error taxonomy. Each stage reports the most specific applicable code; a
// non-success code short-circuits the remaining stages for that organization
// only.
const (
	CodeSuccess          ErrorCode = 0
	CodeSettingsNotFound ErrorCode = 100
	CodeScrapingFailed   ErrorCode = 200
	CodeDatabaseError    ErrorCode = 300
	CodeNetworkError     ErrorCode = 400
	CodeUnknownError     ErrorCode = 900
)

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeSuccess:
		return "SUCCESS"
	case CodeSettingsNotFound:
		return "SETTINGS_NOT_FOUND"
	case CodeScrapingFailed:
		return "SCRAPING_FAILED"
	case CodeDatabaseError:
		return "DATABASE_ERROR"
	case CodeNetworkError:
		return "NETWORK_ERROR"
	case CodeUnknownError:
		return "UNKNOWN_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// OrgState is the per-organization pipeline state.
type OrgState string

// Pipeline states. Failure may occur in any state and still produces a
// terminal ScrapingLog; data extracted before the failure is retained.
const (
	OrgStatePending    OrgState = "pending"
	OrgStateFetching   OrgState = "fetching"
	OrgStateExtracting OrgState = "extracting"
	OrgStateDeduping   OrgState = "deduping"
	OrgStatePersisting OrgState = "persisting"
	OrgStateDone       OrgState = "done"
	OrgStateFailed     OrgState = "failed"
)

// ScrapingResult is one organization's collection outcome.
type ScrapingResult struct {
	OrgName      string    `json:"org_name"`
	ErrorCode    ErrorCode `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
	Data         []Notice  `json:"data"`
}

// Failed reports whether the result carries a non-success code.
func (r *ScrapingResult) Failed() bool {
	return r.ErrorCode != CodeSuccess
}

// ScrapingError is the code+message pair recorded on a log entry.
type ScrapingError struct {
	ErrorCode    ErrorCode `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// ScrapingLog is the write-once audit record for one organization in one run.
type ScrapingLog struct {
	OrgName       string         `db:"org_name"       json:"orgName"`
	Error         *ScrapingError `db:"-"              json:"error"`
	ScrapedCount  int            `db:"scraped_count"  json:"scrapedCount"`
	NewCount      int            `db:"new_count"      json:"newCount"`
	InsertedCount int            `db:"inserted_count" json:"insertedCount"`
	Time          time.Time      `db:"time"           json:"time"`
}

// ErrorCodeValue returns the log's error code, CodeSuccess when none.
func (l *ScrapingLog) ErrorCodeValue() ErrorCode {
	if l.Error == nil {
		return CodeSuccess
	}
	return l.Error.ErrorCode
}

// WorkflowResult is the aggregate outcome of one run. Success means the run
// itself completed; per-organization failures are reported in Errors without
// flipping the flag, so dashboards can tell "engine broken" from "one site's
// markup changed".
type WorkflowResult struct {
	Success       bool          `json:"success"`
	ErrorCode     ErrorCode     `json:"error_code"`
	ErrorMessage  string        `json:"error_message"`
	ScrapedCount  int           `json:"scraped_count"`
	NewCount      int           `json:"new_count"`
	InsertedCount int           `json:"inserted_count"`
	Organizations int           `json:"organizations"`
	Errors        []string      `json:"errors,omitempty"`
	Logs          []ScrapingLog `json:"logs,omitempty"`
}

// RunErrors is the aggregate error record persisted alongside run logs when
// at least one organization failed.
type RunErrors struct {
	Orgs string    `db:"orgs" json:"orgs"`
	Time time.Time `db:"time" json:"time"`
}
