package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"

	"resident-sim-be/pkg/docload"
	"resident-sim-be/pkg/embedding"
	"resident-sim-be/pkg/rag/index"
	"resident-sim-be/pkg/utils"
)

const (
	// Character-based chunking geometry. Overlap keeps a concept that straddles
	// a chunk boundary retrievable from at least one side.
	DefaultChunkSize = 1000
	DefaultOverlap   = 150
)

// Retriever guarantees a queryable semantic index exists per namespace and
// answers nearest-neighbour text queries against it.
type Retriever struct {
	store    *index.Store
	embedder embedding.Provider
	loader   docload.Loader

	chunkSize int
	overlap   int

	// Collapses concurrent EnsureIndex calls for the same namespace into one
	// ingestion; late callers wait for the in-flight result.
	group singleflight.Group
}

func NewRetriever(store *index.Store, embedder embedding.Provider, loader docload.Loader) *Retriever {
	return &Retriever{
		store:     store,
		embedder:  embedder,
		loader:    loader,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
}

// EnsureIndex makes sure the namespace holds an index batch for the current
// content version of sourceRef. Calling it repeatedly with unchanged content
// is a no-op after the first call. A missing or unreadable source degrades
// silently to an empty index; an embedding outage propagates as an error.
func (r *Retriever) EnsureIndex(ctx context.Context, namespace, sourceRef string) error {
	if sourceRef == "" {
		return nil
	}

	fp, ok := fingerprint(sourceRef)
	if !ok {
		return nil
	}

	if r.store.HasBatch(namespace, fp) {
		return nil
	}

	_, err, _ := r.group.Do(namespace, func() (interface{}, error) {
		// Re-check after waiting: the flight we joined may have ingested it.
		if r.store.HasBatch(namespace, fp) {
			return nil, nil
		}

		pages, err := r.loader.Load(sourceRef)
		if err != nil || len(pages) == 0 {
			return nil, nil
		}

		chunks := utils.SplitText(strings.Join(pages, "\n"), r.chunkSize, r.overlap)

		batch := make([]index.Chunk, 0, len(chunks))
		for i, c := range chunks {
			vec, err := r.embedder.Embed(ctx, c.Text)
			if err != nil {
				return nil, fmt.Errorf("embed chunk %d for %s: %w", i, namespace, err)
			}
			batch = append(batch, index.Chunk{
				ID:          fmt.Sprintf("%s:%s:%d", namespace, fp, i),
				Fingerprint: fp,
				Text:        c.Text,
				Position:    c.Position,
				Vector:      vec,
			})
		}

		r.store.AddBatch(namespace, fp, batch)
		return nil, nil
	})

	return err
}

// Search returns up to k snippets ranked by descending similarity to the
// query. An empty query deterministically returns an empty result.
func (r *Retriever) Search(ctx context.Context, namespace, query string, k int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		// An embedding outage must not masquerade as "nothing in the record".
		return nil, fmt.Errorf("embed query for %s: %w", namespace, err)
	}

	scored := r.store.Nearest(namespace, vec, k)
	snippets := make([]string, 0, len(scored))
	for _, s := range scored {
		snippets = append(snippets, strings.TrimSpace(s.Chunk.Text))
	}
	return snippets, nil
}

// ChunkCount reports the chunks stored under a namespace.
func (r *Retriever) ChunkCount(namespace string) int {
	return r.store.Count(namespace)
}

// FormatContext renders snippets as the numbered block that prompt templates
// embed under a CASE CONTEXT heading.
func FormatContext(snippets []string) string {
	parts := make([]string, 0, len(snippets))
	for i, s := range snippets {
		if s == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%d] %s", i+1, s))
	}
	return strings.Join(parts, "\n\n")
}

// fingerprint is a cheap content-identity proxy: file name, byte length and
// modification time. Good enough to detect re-ingestion need without hashing.
func fingerprint(sourceRef string) (string, bool) {
	info, err := os.Stat(sourceRef)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s:%d:%d", filepath.Base(sourceRef), info.Size(), info.ModTime().Unix()), true
}
