package scraper_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/bidcrawl/internal/domain"
	"github.com/jonesrussell/bidcrawl/internal/fetcher"
	"github.com/jonesrussell/bidcrawl/internal/logger"
	"github.com/jonesrussell/bidcrawl/internal/scraper"
	"github.com/jonesrussell/bidcrawl/internal/settings"
)

type noLimit struct{}

func (noLimit) Wait(context.Context, string) error { return nil }

func newScraper(t *testing.T) *scraper.Scraper {
	t.Helper()

	client := fetcher.New(fetcher.Config{
		UserAgent:      "bidcrawl-test",
		MaxRetries:     0,
		RetryBaseDelay: time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}, noLimit{}, logger.NewNoOp())

	return scraper.New(client, logger.NewNoOp())
}

// pageHTML renders a list page with n rows whose ids start at first.
func pageHTML(first, n int) string {
	rows := ""
	for i := 0; i < n; i++ {
		id := first + i
		rows += fmt.Sprintf(
			`<tr><td><a href="/view.do?id=%d">공고 %d</a></td><td>2026.08.%02d</td></tr>`,
			id, id, (id%28)+1)
	}
	return `<html><body><table>` + rows + `</table></body></html>`
}

func listCfg(url string, start, end int) *domain.ScrapingSettings {
	return &domain.ScrapingSettings{
		OrgName:   "광진구",
		URL:       url,
		RowXpath:  "//table/tr",
		StartPage: start,
		EndPage:   end,
		Use:       1,
	}
}

func listMapping(t *testing.T) *settings.Mapping {
	t.Helper()

	m, err := settings.ParseElements(`{
		"title": {"xpath": ".//a"},
		"detail_url": {"xpath": ".//a", "target": "href"},
		"posted_date": {"xpath": "./td[2]", "callback": "date-normalize"}
	}`)
	require.NoError(t, err)
	return m
}

func TestCollectList_MultiPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, pageHTML(1, 10))
		case "2":
			fmt.Fprint(w, pageHTML(11, 10))
		default:
			fmt.Fprint(w, `<html><body><table></table></body></html>`)
		}
	}))
	defer srv.Close()

	s := newScraper(t)
	outcome := s.CollectList(context.Background(),
		listCfg(srv.URL+"/list.do?page=${i}", 1, 3), listMapping(t), nil)

	assert.False(t, outcome.Failed())
	assert.Equal(t, 20, outcome.ScrapedCount)
	// Page 3 is empty and stops the walk.
	assert.Equal(t, 2, outcome.PagesFetched)
	// Oldest first: the last row of the last page leads.
	assert.Equal(t, srv.URL+"/view.do?id=20", outcome.Notices[0].DetailURL)
}

func TestCollectList_EarlyStopOnKnownPage(t *testing.T) {
	requested := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested++
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, pageHTML(1, 5))
		default:
			fmt.Fprint(w, pageHTML(6, 5))
		}
	}))
	defer srv.Close()

	// Everything on page 2 is already stored.
	known := make(map[string]struct{})
	for id := 6; id <= 10; id++ {
		known[fmt.Sprintf("%s/view.do?id=%d", srv.URL, id)] = struct{}{}
	}

	s := newScraper(t)
	outcome := s.CollectList(context.Background(),
		listCfg(srv.URL+"/list.do?page=${i}", 1, 10), listMapping(t), known)

	assert.False(t, outcome.Failed())
	assert.Equal(t, 10, outcome.ScrapedCount)
	assert.Equal(t, 2, requested)
}

func TestCollectList_NetworkFailureKeepsPartialData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, pageHTML(1, 5))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newScraper(t)
	outcome := s.CollectList(context.Background(),
		listCfg(srv.URL+"/list.do?page=${i}", 1, 3), listMapping(t), nil)

	assert.True(t, outcome.Failed())
	assert.Equal(t, domain.CodeNetworkError, outcome.ErrorCode)
	assert.Equal(t, 5, outcome.ScrapedCount)
	assert.Len(t, outcome.Notices, 5)
}

func TestCollectList_NoRowsIsScrapingFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><div>점검 중입니다</div></body></html>`)
	}))
	defer srv.Close()

	s := newScraper(t)
	outcome := s.CollectList(context.Background(),
		listCfg(srv.URL+"/list.do?page=${i}", 1, 1), listMapping(t), nil)

	assert.Equal(t, domain.CodeScrapingFailed, outcome.ErrorCode)
	assert.Zero(t, outcome.ScrapedCount)
}

func TestCollectList_EmptyPageRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, pageHTML(1, 5))
	}))
	defer srv.Close()

	s := newScraper(t)
	outcome := s.CollectList(context.Background(),
		listCfg(srv.URL+"/list.do?page=${i}", 5, 2), listMapping(t), nil)

	// No page is requested, so there is nothing to fail on.
	assert.False(t, outcome.Failed())
	assert.Equal(t, domain.CodeSuccess, outcome.ErrorCode)
	assert.Zero(t, outcome.PagesFetched)
	assert.Zero(t, outcome.ScrapedCount)
	assert.Empty(t, outcome.Notices)
}

func TestCollectList_CrossPageDuplicatesCountedOnce(t *testing.T) {
	// Pages 1 and 2 share three rows, as sticky notices often do. Every
	// extracted row counts as scraped; the candidate list stays unique.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, pageHTML(1, 10))
		case "2":
			fmt.Fprint(w, pageHTML(8, 10))
		default:
			fmt.Fprint(w, `<html><body><table></table></body></html>`)
		}
	}))
	defer srv.Close()

	s := newScraper(t)
	outcome := s.CollectList(context.Background(),
		listCfg(srv.URL+"/list.do?page=${i}", 1, 3), listMapping(t), nil)

	assert.False(t, outcome.Failed())
	assert.Equal(t, 20, outcome.ScrapedCount)
	assert.Len(t, outcome.Notices, 17)
}

func TestCollectDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "404" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `<html><body><div id="content"><p>본문</p></div></body></html>`)
	}))
	defer srv.Close()

	m, err := settings.ParseElements(`{"body_html": {"xpath": "//div[@id=\"content\"]"}}`)
	require.NoError(t, err)

	pending := []*domain.Notice{
		{OrgName: "광진구", Title: "공고 1", DetailURL: srv.URL + "/view.do?id=1"},
		{OrgName: "광진구", Title: "공고 2", DetailURL: srv.URL + "/view.do?id=404"},
	}

	s := newScraper(t)
	outcome := s.CollectDetails(context.Background(),
		listCfg(srv.URL, 1, 1), m, pending)

	assert.Equal(t, domain.CodeSuccess, outcome.ErrorCode)
	assert.Equal(t, 1, outcome.FailedCount)
	require.Len(t, outcome.Enriched, 1)
	require.NotNil(t, outcome.Enriched[0].BodyHTML)
	assert.Contains(t, *outcome.Enriched[0].BodyHTML, "본문")
}
