package fetcher

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// pageToken is the placeholder substituted with the page number in URL
// templates and strategy arguments.
const pageToken = "${i}"

// PageRequest describes one pagination request.
type PageRequest struct {
	Method string
	URL    string
	Form   url.Values
}

// Strategy builds the request for a given page. The paging argument is the
// organization's raw strategy identifier, so strategies can carry their own
// parameters after the "name:" prefix.
type Strategy interface {
	Name() string
	Build(baseURL, paging string, page int) (PageRequest, error)
}

// strategies is the closed registry of paging strategies, keyed by the
// identifier's prefix before ":".
var strategies = map[string]Strategy{
	"query": queryStrategy{},
	"form":  formStrategy{},
}

// Resolve returns the strategy for a paging identifier. Empty identifiers
// and URL templates resolve to the template strategy; unknown names also
// fall back to it, with known=false so the caller can log a warning.
func Resolve(paging string) (strategy Strategy, known bool) {
	if paging == "" || strings.Contains(paging, pageToken) {
		return templateStrategy{}, true
	}

	name := paging
	if i := strings.Index(paging, ":"); i >= 0 {
		name = paging[:i]
	}

	if s, ok := strategies[name]; ok {
		return s, true
	}
	return templateStrategy{}, false
}

// templateStrategy substitutes the page number into a ${i} URL template.
// URLs without the token fetch the same document for every page, which is
// how single-page organizations are configured.
type templateStrategy struct{}

func (templateStrategy) Name() string { return "template" }

func (templateStrategy) Build(baseURL, paging string, page int) (PageRequest, error) {
	pageURL := strings.ReplaceAll(baseURL, pageToken, strconv.Itoa(page))
	if pageURL == baseURL && paging != "" {
		// Legacy rows keep the token in the paging column instead of
		// the URL.
		if sub := strings.ReplaceAll(paging, pageToken, strconv.Itoa(page)); strings.HasPrefix(sub, "http") {
			pageURL = sub
		}
	}
	return PageRequest{Method: http.MethodGet, URL: pageURL}, nil
}

// queryStrategy appends "param=page" to the URL; the identifier form is
// "query:param".
type queryStrategy struct{}

func (queryStrategy) Name() string { return "query" }

func (queryStrategy) Build(baseURL, paging string, page int) (PageRequest, error) {
	param := strategyArg(paging, "pageIndex")

	u, err := url.Parse(baseURL)
	if err != nil {
		return PageRequest{}, err
	}

	q := u.Query()
	q.Set(param, strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return PageRequest{Method: http.MethodGet, URL: u.String()}, nil
}

// formStrategy posts "field=page" as a form body, the postback style some
// sites require; the identifier form is "form:field".
type formStrategy struct{}

func (formStrategy) Name() string { return "form" }

func (formStrategy) Build(baseURL, paging string, page int) (PageRequest, error) {
	field := strategyArg(paging, "pageIndex")

	form := url.Values{}
	form.Set(field, strconv.Itoa(page))

	return PageRequest{Method: http.MethodPost, URL: baseURL, Form: form}, nil
}

// strategyArg returns the text after "name:", or fallback when absent.
func strategyArg(paging, fallback string) string {
	if i := strings.Index(paging, ":"); i >= 0 && i+1 < len(paging) {
		return paging[i+1:]
	}
	return fallback
}
