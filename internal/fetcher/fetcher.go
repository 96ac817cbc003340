// Package fetcher performs all blocking HTTP I/O for the scraping engine:
// page retrieval, pagination requests, login sessions, and iframe
// indirection.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/jonesrussell/bidcrawl/internal/domain"
	"github.com/jonesrussell/bidcrawl/internal/logger"
	"github.com/jonesrussell/bidcrawl/internal/settings"
)

// Fetch failure sentinels.
var (
	// ErrNetwork marks fetches that exhausted their retries.
	ErrNetwork = errors.New("network failure")
	// ErrIframeNotFound marks pages whose configured iframe selector
	// matched nothing.
	ErrIframeNotFound = errors.New("iframe not found")
	// ErrAuthRejected marks login attempts the site refused.
	ErrAuthRejected = errors.New("authentication rejected")
)

// Retry-triggering status bounds.
const (
	statusTooManyReqs  = 429
	statusServerErrLow = 500
	statusUnauthorized = 401
	statusForbidden    = 403
)

// Config holds fetch behavior settings.
type Config struct {
	UserAgent       string
	MaxRetries      int
	RetryBaseDelay  time.Duration
	RequestTimeout  time.Duration
	MaxResponseSize int64
}

// Limiter throttles requests per target host.
type Limiter interface {
	Wait(ctx context.Context, host string) error
}

// Client builds run-scoped fetch sessions. It is safe for concurrent use;
// each organization gets its own Session.
type Client struct {
	cfg     Config
	limiter Limiter
	log     logger.Interface
}

// New creates a fetch client.
func New(cfg Config, limiter Limiter, log logger.Interface) *Client {
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = 10 * 1024 * 1024
	}
	return &Client{cfg: cfg, limiter: limiter, log: log}
}

// Session is the per-organization fetch state for one run: cookie jar,
// login state, and resolved paging strategy. Not safe for concurrent use;
// the pipeline within one organization is sequential.
type Session struct {
	client   *Client
	http     *http.Client
	settings *domain.ScrapingSettings
	strategy Strategy
	login    *loginDescriptor
	authed   bool
}

// NewSession prepares a session for one organization. The login descriptor,
// when present, is parsed here so a malformed one fails before any fetch.
func (c *Client) NewSession(s *domain.ScrapingSettings) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	sess := &Session{
		client: c,
		http: &http.Client{
			Jar:     jar,
			Timeout: c.cfg.RequestTimeout,
		},
		settings: s,
	}

	strategy, known := Resolve(s.PagingStrategy())
	if !known {
		c.log.Warn("unknown paging strategy, using url template",
			"org_name", s.OrgName, "paging", s.PagingStrategy())
	}
	sess.strategy = strategy

	if raw := s.LoginDescriptor(); raw != "" {
		login, loginErr := parseLoginDescriptor(raw)
		if loginErr != nil {
			return nil, loginErr
		}
		sess.login = login
	}

	return sess, nil
}

// FetchListPage retrieves one list page, following the organization's paging
// strategy and iframe indirection. The returned URL is the document the
// bytes came from, used as the base for relative links.
func (s *Session) FetchListPage(ctx context.Context, page int) ([]byte, string, error) {
	if err := s.ensureLogin(ctx); err != nil {
		return nil, "", err
	}

	req, err := s.strategy.Build(s.settings.URL, s.settings.PagingStrategy(), page)
	if err != nil {
		return nil, "", err
	}

	body, err := s.do(ctx, req)
	if err != nil {
		return nil, "", err
	}

	if sel := s.settings.IframeSelector(); sel != "" {
		return s.resolveIframe(ctx, body, req.URL, sel)
	}

	return body, req.URL, nil
}

// FetchURL retrieves an arbitrary document, used for detail pages.
func (s *Session) FetchURL(ctx context.Context, pageURL string) ([]byte, error) {
	if err := s.ensureLogin(ctx); err != nil {
		return nil, err
	}
	return s.do(ctx, PageRequest{Method: http.MethodGet, URL: pageURL})
}

// resolveIframe finds the iframe the selector names, then fetches its source
// document. Selectors starting with "/" or "." are treated as XPath, others
// as CSS.
func (s *Session) resolveIframe(
	ctx context.Context,
	outer []byte,
	outerURL, selector string,
) ([]byte, string, error) {
	src, err := iframeSrc(outer, selector)
	if err != nil {
		return nil, "", err
	}

	frameURL := settings.AbsoluteURL(src, outerURL)

	body, err := s.do(ctx, PageRequest{Method: http.MethodGet, URL: frameURL})
	if err != nil {
		return nil, "", err
	}
	return body, frameURL, nil
}

// iframeSrc extracts the src attribute of the selected iframe.
func iframeSrc(body []byte, selector string) (string, error) {
	if strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, ".") {
		doc, err := htmlquery.Parse(bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("parse outer page: %w", err)
		}
		node := htmlquery.FindOne(doc, selector)
		if node == nil {
			return "", fmt.Errorf("%w: %s", ErrIframeNotFound, selector)
		}
		if src := htmlquery.SelectAttr(node, "src"); src != "" {
			return src, nil
		}
		return "", fmt.Errorf("%w: %s has no src", ErrIframeNotFound, selector)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse outer page: %w", err)
	}
	src, ok := doc.Find(selector).First().Attr("src")
	if !ok || src == "" {
		return "", fmt.Errorf("%w: %s", ErrIframeNotFound, selector)
	}
	return src, nil
}

// do performs the request with per-host rate limiting, bounded retry with
// exponential backoff, and a single re-authentication on auth rejection.
func (s *Session) do(ctx context.Context, pr PageRequest) ([]byte, error) {
	host, err := hostOf(pr.URL)
	if err != nil {
		return nil, err
	}

	var lastErr error
	reauthed := false

	for attempt := 0; attempt <= s.client.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if waitErr := s.backoff(ctx, attempt); waitErr != nil {
				return nil, waitErr
			}
		}

		if limitErr := s.client.limiter.Wait(ctx, host); limitErr != nil {
			return nil, limitErr
		}

		body, status, reqErr := s.once(ctx, pr)
		switch {
		case reqErr != nil:
			lastErr = reqErr
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrNetwork, reqErr)
			}
		case status == http.StatusOK:
			return body, nil
		case (status == statusUnauthorized || status == statusForbidden) && s.login != nil && !reauthed:
			// One re-authentication per request, then the normal
			// retry budget applies.
			reauthed = true
			s.authed = false
			if loginErr := s.ensureLogin(ctx); loginErr != nil {
				return nil, loginErr
			}
			lastErr = fmt.Errorf("http status %d", status)
		case status == statusTooManyReqs || status >= statusServerErrLow:
			lastErr = fmt.Errorf("http status %d", status)
		default:
			return nil, fmt.Errorf("%w: unexpected http status %d", ErrNetwork, status)
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrNetwork, lastErr)
}

// once performs a single HTTP request.
func (s *Session) once(ctx context.Context, pr PageRequest) ([]byte, int, error) {
	var reqBody io.Reader = http.NoBody
	if pr.Method == http.MethodPost && pr.Form != nil {
		reqBody = strings.NewReader(pr.Form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, pr.Method, pr.URL, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", s.client.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if pr.Method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, s.client.cfg.MaxResponseSize)
	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", readErr)
	}

	return body, resp.StatusCode, nil
}

// backoff sleeps for the attempt's exponential delay or returns early when
// ctx is done.
func (s *Session) backoff(ctx context.Context, attempt int) error {
	delay := s.client.cfg.RetryBaseDelay << (attempt - 1)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	return u.Host, nil
}
