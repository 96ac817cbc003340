package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// loginDescriptor is the parsed form of a settings row's login column.
type loginDescriptor struct {
	// URL receives the credential form POST.
	URL string `json:"url"`
	// Params are the form fields to submit, credentials included.
	Params map[string]string `json:"params"`
}

// parseLoginDescriptor parses and validates the JSON login descriptor.
func parseLoginDescriptor(raw string) (*loginDescriptor, error) {
	var d loginDescriptor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("parse login descriptor: %w", err)
	}
	if d.URL == "" {
		return nil, fmt.Errorf("login descriptor missing url")
	}
	return &d, nil
}

// ensureLogin establishes the session once per run. Later calls are no-ops
// until an auth rejection clears the flag.
func (s *Session) ensureLogin(ctx context.Context) error {
	if s.login == nil || s.authed {
		return nil
	}

	form := url.Values{}
	for k, v := range s.login.Params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.login.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("User-Agent", s.client.cfg.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: login: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: login returned %d", ErrAuthRejected, resp.StatusCode)
	}

	s.client.log.Debug("login session established",
		"org_name", s.settings.OrgName, "url", s.login.URL)
	s.authed = true

	return nil
}
