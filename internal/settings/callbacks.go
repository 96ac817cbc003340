package settings

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Transform is a registered value transform. baseURL is the page the value
// was extracted from, for transforms that resolve relative references.
type Transform func(value, baseURL string) string

// Callback names accepted in field rules. Anything else is rejected at load
// time; rules never invoke arbitrary code paths.
const (
	CallbackDateNormalize = "date-normalize"
	CallbackTrim          = "trim"
	CallbackNumberParse   = "number-parse"
	CallbackAbsoluteURL   = "absolute-url"
)

// callbacks is the fixed transform registry.
var callbacks = map[string]Transform{
	CallbackDateNormalize: func(v, _ string) string { return NormalizeDate(v, time.Now()) },
	CallbackTrim:          func(v, _ string) string { return CleanText(v) },
	CallbackNumberParse:   func(v, _ string) string { return parseNumber(v) },
	CallbackAbsoluteURL:   AbsoluteURL,
}

// KnownCallback reports whether name is in the registry.
func KnownCallback(name string) bool {
	_, ok := callbacks[name]
	return ok
}

// ApplyCallback runs the named transform. Unknown names return the value
// unchanged; they cannot occur for rules that passed ParseElements.
func ApplyCallback(name, value, baseURL string) string {
	fn, ok := callbacks[name]
	if !ok {
		return value
	}
	return fn(value, baseURL)
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace and trims the ends.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

var nonNumericRe = regexp.MustCompile(`[^0-9.]`)

// parseNumber strips everything but digits and decimal points, so values
// like "1,234,000원" become "1234000".
func parseNumber(s string) string {
	return nonNumericRe.ReplaceAllString(s, "")
}

// AbsoluteURL resolves ref against base, returning ref untouched when it is
// already absolute or base cannot be parsed.
func AbsoluteURL(ref, base string) string {
	if ref == "" || strings.HasPrefix(ref, "http") {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	resolved, err := baseURL.Parse(ref)
	if err != nil {
		return ref
	}
	return resolved.String()
}

const (
	dateLayout    = "2006-01-02"
	maxDateLength = 10
	compactLength = 8
	shortYearLen  = 2
)

// NormalizeDate converts the date strings government sites publish into
// YYYY-MM-DD. Ranges keep their first date, two-digit years become 20xx,
// compact 8-digit dates are split, and anything unparseable or in the future
// falls back to today.
func NormalizeDate(raw string, now time.Time) string {
	today := now.Format(dateLayout)

	s := strings.TrimSpace(raw)
	if len(s) < 5 {
		return today
	}

	// Ranges like "2024/08/23 ~ 2024/09/03" keep the first date.
	if i := strings.Index(s, "~"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}

	if len(s) > maxDateLength {
		s = s[:maxDateLength]
	}

	switch {
	case strings.ContainsAny(s, "./-"):
		s = normalizeSeparated(s)
	case isDigits(s) && len(s) == compactLength:
		s = s[:4] + "-" + s[4:6] + "-" + s[6:8]
	}

	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return today
	}
	if parsed.After(now) {
		return today
	}
	return s
}

// normalizeSeparated rewrites dot, slash, or dash separated dates, trimming
// and zero-padding parts and widening two-digit years.
func normalizeSeparated(s string) string {
	s = strings.NewReplacer(".", "-", "/", "-").Replace(s)

	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return s
	}

	year := strings.TrimSpace(parts[0])
	month := strings.TrimSpace(parts[1])
	day := strings.TrimSpace(parts[2])

	if len(year) == shortYearLen {
		year = "20" + year
	}
	if len(month) == 1 {
		month = "0" + month
	}
	if len(day) == 1 {
		day = "0" + day
	}

	return year + "-" + month + "-" + day
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
