package evidence

import (
	"context"
	"strings"
	"time"

	"resident-sim-be/internal/pkg/logger"
)

// TrustedDomains is the closed set of institutional domains eligible for
// citation. Query content never expands it.
var TrustedDomains = []string{
	"nih.gov",
	"ncbi.nlm.nih.gov", // includes PubMed/PMC
	"cdc.gov",
	"who.int",
	"mayoclinic.org",
	"hopkinsmedicine.org",
}

// Source kinds for evidence items.
const (
	SourceLiterature = "literature"
	SourceWeb        = "web"
)

// Item is a titled, URL-addressable citation from an allow-listed source.
// Items are ephemeral: produced per request, never persisted.
type Item struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	SourceKind string `json:"source_kind"`
}

// Record is a literature index hit. ID maps deterministically to a canonical
// citation URL (a PubMed PMID).
type Record struct {
	Title string
	ID    string
}

// Filters narrows a literature query.
type Filters struct {
	// PreferReviews restricts to review/guideline/systematic-review
	// publication types.
	PreferReviews bool
	// EnglishOnly restricts to English-language records.
	EnglishOnly bool
}

// LiteratureClient queries a biomedical literature index.
type LiteratureClient interface {
	Search(ctx context.Context, query string, filters Filters, limit int) ([]Record, error)
	CitationURL(id string) string
}

// WebResult is a single hit from a domain-restricted web lookup.
type WebResult struct {
	Title string
	URL   string
}

// WebClient performs a best-effort web lookup restricted to the given
// domains. It is explicitly fallible; its fragility never propagates beyond
// "fewer results".
type WebClient interface {
	Search(ctx context.Context, query string, domains []string, limit int) ([]WebResult, error)
}

// Finder produces a capped, deduplicated, trust-filtered set of
// citation-worthy items for a topic.
type Finder struct {
	lit    LiteratureClient
	web    WebClient
	log    logger.ILogger
	lookup time.Duration
}

func NewFinder(lit LiteratureClient, web WebClient, log logger.ILogger) *Finder {
	return &Finder{
		lit:    lit,
		web:    web,
		log:    log,
		lookup: 15 * time.Second,
	}
}

// FindForDiagnosis gathers citations for a diagnosis name, preferring
// review/guideline/systematic-review literature in English.
func (f *Finder) FindForDiagnosis(ctx context.Context, diagnosis string, maxItems int) []Item {
	return f.collect(ctx, diagnosis, Filters{PreferReviews: true, EnglishOnly: true}, maxItems)
}

// Gather gathers citations for free-text content (e.g. a treatment plan),
// ranked by plain relevance.
func (f *Finder) Gather(ctx context.Context, topic string, maxItems int) []Item {
	return f.collect(ctx, topic, Filters{}, maxItems)
}

// collect is the shared algorithm shape: literature first, then a
// domain-restricted web lookup for just enough results to reach the cap,
// merged in first-seen order and deduplicated by URL. Every lookup failure
// degrades to fewer results; callers must tolerate zero evidence.
func (f *Finder) collect(ctx context.Context, topic string, filters Filters, maxItems int) []Item {
	if strings.TrimSpace(topic) == "" || maxItems <= 0 {
		return nil
	}

	var items []Item

	litCtx, cancel := context.WithTimeout(ctx, f.lookup)
	records, err := f.lit.Search(litCtx, topic, filters, maxItems)
	cancel()
	if err != nil {
		f.log.Warn("evidence", "literature lookup failed", map[string]interface{}{
			"topic": topic,
			"error": err.Error(),
		})
	}
	for _, r := range records {
		title := r.Title
		if title == "" {
			title = "PubMed " + r.ID
		}
		items = append(items, Item{
			Title:      title,
			URL:        f.lit.CitationURL(r.ID),
			SourceKind: SourceLiterature,
		})
	}

	if remaining := maxItems - len(items); remaining > 0 {
		webCtx, cancel := context.WithTimeout(ctx, f.lookup)
		results, err := f.web.Search(webCtx, topic, TrustedDomains, remaining)
		cancel()
		if err != nil {
			f.log.Warn("evidence", "web lookup failed", map[string]interface{}{
				"topic": topic,
				"error": err.Error(),
			})
		}
		for _, r := range results {
			items = append(items, Item{
				Title:      r.Title,
				URL:        r.URL,
				SourceKind: SourceWeb,
			})
		}
	}

	return dedupe(items, maxItems)
}

// dedupe drops items sharing a URL (case-insensitive exact match), keeping
// first-seen order, and truncates to maxItems.
func dedupe(items []Item, maxItems int) []Item {
	seen := make(map[string]bool, len(items))
	uniq := make([]Item, 0, len(items))
	for _, it := range items {
		if it.URL == "" {
			continue
		}
		key := strings.ToLower(it.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		uniq = append(uniq, it)
		if len(uniq) == maxItems {
			break
		}
	}
	return uniq
}

// FormatBlock renders evidence as one bullet line per item, title then URL,
// for embedding in assessment prompts. An empty set renders an explicit marker
// so the model is told there is nothing to cite rather than left to invent.
func FormatBlock(items []Item) string {
	if len(items) == 0 {
		return "(no trusted evidence found)"
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it.Title+" — "+it.URL)
	}
	return strings.Join(lines, "\n")
}
