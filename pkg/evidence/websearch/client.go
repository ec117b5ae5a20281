package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"resident-sim-be/pkg/evidence"
)

const defaultBaseURL = "https://duckduckgo.com/html/"

// DuckDuckGoClient scrapes the DuckDuckGo HTML endpoint, one site-restricted
// query per allow-listed domain. No API key required; any parsing hiccup
// surfaces as fewer results, never as a hard failure for the aggregator.
type DuckDuckGoClient struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

var _ evidence.WebClient = &DuckDuckGoClient{}

func NewDuckDuckGoClient() *DuckDuckGoClient {
	return &DuckDuckGoClient{
		BaseURL:   defaultBaseURL,
		UserAgent: "Mozilla/5.0",
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Search walks the domain allow-list in order, collecting results until the
// limit is reached. Domains that fail or return nothing are skipped.
func (c *DuckDuckGoClient) Search(ctx context.Context, query string, domains []string, limit int) ([]evidence.WebResult, error) {
	var results []evidence.WebResult

	for _, domain := range domains {
		if len(results) >= limit {
			break
		}

		hits, err := c.searchDomain(ctx, domain, query, limit-len(results))
		if err != nil {
			if ctx.Err() != nil {
				// Treat a timeout like any other lookup failure: stop and
				// return whatever was collected.
				return results, nil
			}
			continue
		}
		results = append(results, hits...)
	}

	return results, nil
}

func (c *DuckDuckGoClient) searchDomain(ctx context.Context, domain, query string, remaining int) ([]evidence.WebResult, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("site:%s %s", domain, query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var results []evidence.WebResult
	doc.Find("a.result__a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Text())
		href, _ := sel.Attr("href")
		if href == "" || !strings.HasPrefix(href, "http") {
			return true
		}
		results = append(results, evidence.WebResult{Title: title, URL: href})
		return len(results) < remaining
	})

	return results, nil
}
