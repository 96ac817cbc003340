package fetcher_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/bidcrawl/internal/domain"
	"github.com/jonesrussell/bidcrawl/internal/fetcher"
	"github.com/jonesrussell/bidcrawl/internal/logger"
)

// noLimit is a Limiter that never blocks.
type noLimit struct{}

func (noLimit) Wait(context.Context, string) error { return nil }

func testClient(t *testing.T) *fetcher.Client {
	t.Helper()

	return fetcher.New(fetcher.Config{
		UserAgent:      "bidcrawl-test/1.0",
		MaxRetries:     2,
		RetryBaseDelay: 5 * time.Millisecond,
		RequestTimeout: 2 * time.Second,
	}, noLimit{}, logger.NewNoOp())
}

func listSettings(url string) *domain.ScrapingSettings {
	return &domain.ScrapingSettings{
		OrgName:   "테스트기관",
		URL:       url,
		RowXpath:  "//table/tr",
		StartPage: 1,
		EndPage:   1,
		Use:       1,
	}
}

func TestFetchListPage_TemplateURL(t *testing.T) {
	var gotPath atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.String())
		fmt.Fprint(w, "<html><body>page</body></html>")
	}))
	defer srv.Close()

	s := listSettings(srv.URL + "/list.do?page=${i}")
	sess, err := testClient(t).NewSession(s)
	require.NoError(t, err)

	body, finalURL, err := sess.FetchListPage(context.Background(), 3)
	require.NoError(t, err)
	assert.Contains(t, string(body), "page")
	assert.Equal(t, "/list.do?page=3", gotPath.Load())
	assert.Equal(t, srv.URL+"/list.do?page=3", finalURL)
}

func TestFetchListPage_FormPostback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "2", r.PostFormValue("currentPageNo"))
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	s := listSettings(srv.URL + "/list.do")
	paging := "form:currentPageNo"
	s.Paging = &paging

	sess, err := testClient(t).NewSession(s)
	require.NoError(t, err)

	_, _, err = sess.FetchListPage(context.Background(), 2)
	require.NoError(t, err)
}

func TestFetchListPage_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer srv.Close()

	sess, err := testClient(t).NewSession(listSettings(srv.URL))
	require.NoError(t, err)

	body, _, err := sess.FetchListPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ok")
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchListPage_ExhaustedRetriesIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sess, err := testClient(t).NewSession(listSettings(srv.URL))
	require.NoError(t, err)

	_, _, err = sess.FetchListPage(context.Background(), 1)
	assert.ErrorIs(t, err, fetcher.ErrNetwork)
}

func TestFetchListPage_IframeIndirection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/outer", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><iframe id="board" src="/inner?x=1"></iframe></body></html>`)
	})
	mux.HandleFunc("/inner", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><table><tr><td>notice</td></tr></table></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := listSettings(srv.URL + "/outer")
	sel := "iframe#board"
	s.Iframe = &sel

	sess, err := testClient(t).NewSession(s)
	require.NoError(t, err)

	body, finalURL, err := sess.FetchListPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, string(body), "notice")
	assert.Equal(t, srv.URL+"/inner?x=1", finalURL)
}

func TestFetchListPage_IframeXPathSelector(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/outer", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><iframe src="/inner"></iframe></body></html>`)
	})
	mux.HandleFunc("/inner", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>inner-doc</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := listSettings(srv.URL + "/outer")
	sel := "//iframe"
	s.Iframe = &sel

	sess, err := testClient(t).NewSession(s)
	require.NoError(t, err)

	body, _, err := sess.FetchListPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, string(body), "inner-doc")
}

func TestFetchListPage_IframeMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body>no frames here</body></html>")
	}))
	defer srv.Close()

	s := listSettings(srv.URL)
	sel := "iframe#board"
	s.Iframe = &sel

	sess, err := testClient(t).NewSession(s)
	require.NoError(t, err)

	_, _, err = sess.FetchListPage(context.Background(), 1)
	assert.ErrorIs(t, err, fetcher.ErrIframeNotFound)
}

func TestSession_LoginOncePerRun(t *testing.T) {
	var logins atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "vendor1", r.PostFormValue("user_id"))
		logins.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc"})
	})
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("sid"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "<html>members only</html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := listSettings(srv.URL + "/list")
	login := fmt.Sprintf(`{"url":%q,"params":{"user_id":"vendor1","user_pw":"secret"}}`, srv.URL+"/login")
	s.Login = &login

	sess, err := testClient(t).NewSession(s)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		body, _, fetchErr := sess.FetchListPage(ctx, 1)
		require.NoError(t, fetchErr)
		assert.Contains(t, string(body), "members only")
	}

	assert.Equal(t, int32(1), logins.Load())
}

func TestSession_ReauthenticatesOnceOnRejection(t *testing.T) {
	var logins, listCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		logins.Add(1)
	})
	mux.HandleFunc("/list", func(w http.ResponseWriter, _ *http.Request) {
		// First list request is rejected to force a re-auth.
		if listCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "<html>ok</html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := listSettings(srv.URL + "/list")
	login := fmt.Sprintf(`{"url":%q,"params":{"user_id":"u"}}`, srv.URL+"/login")
	s.Login = &login

	sess, err := testClient(t).NewSession(s)
	require.NoError(t, err)

	body, _, err := sess.FetchListPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ok")
	assert.Equal(t, int32(2), logins.Load())
}

func TestNewSession_MalformedLoginDescriptor(t *testing.T) {
	s := listSettings("http://example.com")
	login := `{"url": `
	s.Login = &login

	_, err := testClient(t).NewSession(s)
	require.Error(t, err)
}

func TestFetchURL_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, "late")
	}))
	defer srv.Close()

	sess, err := testClient(t).NewSession(listSettings(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = sess.FetchURL(ctx, srv.URL)
	assert.ErrorIs(t, err, fetcher.ErrNetwork)
}
