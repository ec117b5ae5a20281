package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resident-sim-be/pkg/evidence"
)

const defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Client queries PubMed through the NCBI E-utilities JSON endpoints.
// Email and tool identify the caller for polite access.
type Client struct {
	BaseURL string
	Email   string
	Tool    string
	Client  *http.Client
}

var _ evidence.LiteratureClient = &Client{}

func NewClient(email, tool string) *Client {
	if email == "" {
		email = "you@example.com"
	}
	if tool == "" {
		tool = "resident-sim-be"
	}
	return &Client{
		BaseURL: defaultBaseURL,
		Email:   email,
		Tool:    tool,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type esummaryDoc struct {
	UID   string `json:"uid"`
	Title string `json:"title"`
}

// Search runs an esearch for matching PMIDs then an esummary for their
// titles, ranked by relevance.
func (c *Client) Search(ctx context.Context, query string, filters evidence.Filters, limit int) ([]evidence.Record, error) {
	term := query
	if filters.PreferReviews {
		term += " AND (review[pt] OR guideline[pt] OR systematic[sb])"
	}
	if filters.EnglishOnly {
		term += " AND english[lang]"
	}

	ids, err := c.esearch(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return c.esummary(ctx, ids)
}

// CitationURL maps a PMID to its canonical PubMed URL.
func (c *Client) CitationURL(id string) string {
	return fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", id)
}

func (c *Client) esearch(ctx context.Context, term string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", term)
	q.Set("sort", "relevance")
	q.Set("retmax", fmt.Sprintf("%d", limit))
	q.Set("retmode", "json")
	q.Set("email", c.Email)
	q.Set("tool", c.Tool)

	var parsed esearchResponse
	if err := c.get(ctx, "/esearch.fcgi", q, &parsed); err != nil {
		return nil, fmt.Errorf("pubmed esearch: %w", err)
	}
	return parsed.ESearchResult.IDList, nil
}

func (c *Client) esummary(ctx context.Context, ids []string) ([]evidence.Record, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "json")
	q.Set("email", c.Email)
	q.Set("tool", c.Tool)

	var parsed esummaryResponse
	if err := c.get(ctx, "/esummary.fcgi", q, &parsed); err != nil {
		return nil, fmt.Errorf("pubmed esummary: %w", err)
	}

	// Preserve esearch relevance order, not the JSON map order.
	records := make([]evidence.Record, 0, len(ids))
	for _, id := range ids {
		raw, ok := parsed.Result[id]
		if !ok {
			continue
		}
		var doc esummaryDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		records = append(records, evidence.Record{Title: doc.Title, ID: id})
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	endpoint := c.BaseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}
