// Package settings interprets per-organization scraping configuration into
// typed extraction rules.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xpath"
)

// ruleSeparator splits legacy element values of the form
// "xpath|-target|-callback" carried over from older settings rows.
const ruleSeparator = "|-"

// Configuration errors. All of them classify as a settings failure: the
// organization is excluded from the run before any fetch happens.
var (
	ErrInvalidElements = errors.New("invalid elements mapping")
	ErrMissingField    = errors.New("required field rule missing")
	ErrUnknownCallback = errors.New("unknown callback")
	ErrBadXPath        = errors.New("invalid xpath expression")
)

// FieldRule is one named extraction instruction.
type FieldRule struct {
	// Key is the notice field the rule fills.
	Key string `json:"key"`
	// XPath selects the value's node relative to the row (list mode) or
	// the document (detail mode).
	XPath string `json:"xpath"`
	// Target names an attribute to read instead of the node text.
	Target string `json:"target,omitempty"`
	// Callback names a registered transform applied to the raw value.
	Callback string `json:"callback,omitempty"`
}

// Mapping is an ordered field→rule mapping parsed from an elements document.
type Mapping struct {
	rules []FieldRule
	index map[string]int
}

// listModeFields are the rules every list mapping must contain.
var listModeFields = []string{"title", "detail_url", "posted_date"}

// ParseElements parses a JSON elements document into a Mapping, preserving
// document order. Values may be rule objects or legacy separator strings.
// Rules with unknown callbacks or unparsable selectors are rejected; no
// partial mapping is ever returned.
func ParseElements(raw string) (*Mapping, error) {
	dec := json.NewDecoder(strings.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrInvalidElements)
	}

	m := &Mapping{index: make(map[string]int)}

	for dec.More() {
		keyTok, keyErr := dec.Token()
		if keyErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidElements, keyErr)
		}
		key := keyTok.(string)

		var value json.RawMessage
		if decodeErr := dec.Decode(&value); decodeErr != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidElements, key, decodeErr)
		}

		rule, ruleErr := parseRule(key, value)
		if ruleErr != nil {
			return nil, ruleErr
		}
		if rule.XPath == "" {
			continue
		}

		if validateErr := validateRule(rule); validateErr != nil {
			return nil, validateErr
		}

		m.index[key] = len(m.rules)
		m.rules = append(m.rules, rule)
	}

	if _, err = dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}

	return m, nil
}

// parseRule decodes a single element value, accepting both object and legacy
// separator string forms.
func parseRule(key string, value json.RawMessage) (FieldRule, error) {
	trimmed := strings.TrimSpace(string(value))

	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return FieldRule{}, fmt.Errorf("%w: field %q: %v", ErrInvalidElements, key, err)
		}
		return ruleFromSeparator(key, s), nil
	}

	var rule FieldRule
	if err := json.Unmarshal(value, &rule); err != nil {
		return FieldRule{}, fmt.Errorf("%w: field %q: %v", ErrInvalidElements, key, err)
	}
	rule.Key = key
	rule.XPath = strings.TrimSpace(rule.XPath)
	rule.Target = strings.TrimSpace(rule.Target)
	rule.Callback = strings.TrimSpace(rule.Callback)

	return rule, nil
}

// ruleFromSeparator splits "xpath|-target|-callback".
func ruleFromSeparator(key, value string) FieldRule {
	parts := strings.Split(value, ruleSeparator)
	rule := FieldRule{Key: key, XPath: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		rule.Target = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		rule.Callback = strings.TrimSpace(parts[2])
	}
	return rule
}

// validateRule rejects unknown callbacks and selectors that do not compile.
func validateRule(rule FieldRule) error {
	if rule.Callback != "" && !KnownCallback(rule.Callback) {
		return fmt.Errorf("%w: field %q names %q", ErrUnknownCallback, rule.Key, rule.Callback)
	}
	if _, err := xpath.Compile(rule.XPath); err != nil {
		return fmt.Errorf("%w: field %q: %v", ErrBadXPath, rule.Key, err)
	}
	return nil
}

// RequireListFields verifies the mapping carries the rules list mode cannot
// run without.
func (m *Mapping) RequireListFields() error {
	for _, field := range listModeFields {
		if !m.Has(field) {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	return nil
}

// Rules returns the rules in document order.
func (m *Mapping) Rules() []FieldRule {
	return m.rules
}

// Has reports whether a rule exists for the field.
func (m *Mapping) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Get returns the rule for the field.
func (m *Mapping) Get(key string) (FieldRule, bool) {
	i, ok := m.index[key]
	if !ok {
		return FieldRule{}, false
	}
	return m.rules[i], true
}

// Len returns the number of rules.
func (m *Mapping) Len() int {
	return len(m.rules)
}
