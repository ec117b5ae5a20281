package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resultsPage mimics the DuckDuckGo HTML results markup closely enough for
// the scraper's selectors.
func resultsPage(links ...[2]string) string {
	body := `<html><body><div id="links">`
	for _, l := range links {
		body += fmt.Sprintf(`<div class="result"><h2 class="result__title">`+
			`<a class="result__a" href="%s">%s</a></h2></div>`, l[0], l[1])
	}
	return body + `</div></body></html>`
}

func TestSearchSiteRestrictedQueries(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("q"))
		fmt.Fprint(w, resultsPage([2]string{"https://cdc.gov/tremor", "Tremor fact sheet"}))
	}))
	defer srv.Close()

	c := NewDuckDuckGoClient()
	c.BaseURL = srv.URL

	results, err := c.Search(context.Background(), "hand tremor", []string{"cdc.gov", "who.int"}, 5)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Tremor fact sheet", results[0].Title)
	assert.Equal(t, []string{"site:cdc.gov hand tremor", "site:who.int hand tremor"}, queries)
}

func TestSearchStopsAtLimit(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		fmt.Fprint(w, resultsPage(
			[2]string{"https://nih.gov/a", "A"},
			[2]string{"https://nih.gov/b", "B"},
			[2]string{"https://nih.gov/c", "C"},
		))
	}))
	defer srv.Close()

	c := NewDuckDuckGoClient()
	c.BaseURL = srv.URL

	results, err := c.Search(context.Background(), "topic", []string{"nih.gov", "cdc.gov"}, 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, requests, "second domain should not be queried once the limit is met")
}

func TestSearchFiltersNonHTTPLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resultsPage(
			[2]string{"javascript:void(0)", "Bogus"},
			[2]string{"/relative/path", "Relative"},
			[2]string{"https://who.int/real", "Real"},
		))
	}))
	defer srv.Close()

	c := NewDuckDuckGoClient()
	c.BaseURL = srv.URL

	results, err := c.Search(context.Background(), "topic", []string{"who.int"}, 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://who.int/real", results[0].URL)
}

func TestSearchSkipsFailingDomains(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "site:nih.gov topic" {
			http.Error(w, "blocked", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, resultsPage([2]string{"https://cdc.gov/x", "X"}))
	}))
	defer srv.Close()

	c := NewDuckDuckGoClient()
	c.BaseURL = srv.URL

	results, err := c.Search(context.Background(), "topic", []string{"nih.gov", "cdc.gov"}, 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://cdc.gov/x", results[0].URL)
}

func TestSearchCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resultsPage([2]string{"https://cdc.gov/x", "X"}))
	}))
	defer srv.Close()

	c := NewDuckDuckGoClient()
	c.BaseURL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := c.Search(ctx, "topic", []string{"cdc.gov"}, 5)

	require.NoError(t, err)
	assert.Empty(t, results)
}
