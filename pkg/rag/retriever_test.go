package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resident-sim-be/pkg/docload"
	"resident-sim-be/pkg/embedding"
	"resident-sim-be/pkg/rag/index"
)

// keywordEmbedder produces deterministic vectors from keyword counts so
// similarity ordering in tests is predictable.
type keywordEmbedder struct {
	calls int32
	delay time.Duration
	err   error
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&e.calls, 1)
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.err != nil {
		return nil, e.err
	}
	lower := strings.ToLower(text)
	vec := []float32{
		float32(strings.Count(lower, "tremor")),
		float32(strings.Count(lower, "fever")),
		1,
	}
	return embedding.NormalizeVector(vec), nil
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestRetriever(e embedding.Provider) *Retriever {
	return NewRetriever(index.NewStore(), e, docload.NewTextLoader())
}

func TestEnsureIndexIdempotent(t *testing.T) {
	e := &keywordEmbedder{}
	r := newTestRetriever(e)
	doc := writeDoc(t, t.TempDir(), "history.txt", "Patient reports a 6-month history of hand tremor.")

	require.NoError(t, r.EnsureIndex(context.Background(), "ns", doc))
	countAfterFirst := r.ChunkCount("ns")
	callsAfterFirst := atomic.LoadInt32(&e.calls)

	require.NoError(t, r.EnsureIndex(context.Background(), "ns", doc))

	assert.Equal(t, countAfterFirst, r.ChunkCount("ns"))
	assert.Equal(t, callsAfterFirst, atomic.LoadInt32(&e.calls), "second call must not re-embed")
}

func TestEnsureIndexFingerprintSensitivity(t *testing.T) {
	e := &keywordEmbedder{}
	r := newTestRetriever(e)
	dir := t.TempDir()
	doc := writeDoc(t, dir, "history.txt", "Patient reports a 6-month history of hand tremor.")

	require.NoError(t, r.EnsureIndex(context.Background(), "ns", doc))
	countAfterFirst := r.ChunkCount("ns")

	// Rewrite with different content and force a distinct mtime.
	require.NoError(t, os.WriteFile(doc, []byte("Patient also reports occasional fever at night."), 0o644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(doc, later, later))

	require.NoError(t, r.EnsureIndex(context.Background(), "ns", doc))

	// New batch ingested; the superseded chunks accumulate.
	assert.Greater(t, r.ChunkCount("ns"), countAfterFirst)
}

func TestEnsureIndexMissingSource(t *testing.T) {
	r := newTestRetriever(&keywordEmbedder{})

	require.NoError(t, r.EnsureIndex(context.Background(), "ns", "/does/not/exist.txt"))
	require.NoError(t, r.EnsureIndex(context.Background(), "ns", ""))

	assert.Equal(t, 0, r.ChunkCount("ns"))

	// Searching an empty namespace is not an error either.
	snippets, err := r.Search(context.Background(), "ns", "tremor", 4)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestEnsureIndexEmbeddingOutage(t *testing.T) {
	e := &keywordEmbedder{err: errors.New("embedding service down")}
	r := newTestRetriever(e)
	doc := writeDoc(t, t.TempDir(), "history.txt", "Patient reports hand tremor.")

	err := r.EnsureIndex(context.Background(), "ns", doc)

	assert.Error(t, err)
}

func TestEnsureIndexSingleFlight(t *testing.T) {
	e := &keywordEmbedder{delay: 20 * time.Millisecond}
	r := newTestRetriever(e)
	doc := writeDoc(t, t.TempDir(), "history.txt", "Patient reports a 6-month history of hand tremor.")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.EnsureIndex(context.Background(), "ns", doc))
		}()
	}
	wg.Wait()

	// One chunk in the document: exactly one embed call total.
	assert.Equal(t, r.ChunkCount("ns"), int(atomic.LoadInt32(&e.calls)))
}

func TestSearchEmptyQuery(t *testing.T) {
	e := &keywordEmbedder{}
	r := newTestRetriever(e)
	doc := writeDoc(t, t.TempDir(), "history.txt", "Patient reports hand tremor.")
	require.NoError(t, r.EnsureIndex(context.Background(), "ns", doc))

	snippets, err := r.Search(context.Background(), "ns", "", 4)

	require.NoError(t, err)
	assert.Empty(t, snippets)
	snippets, err = r.Search(context.Background(), "ns", "   ", 4)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestSearchBoundAndOrdering(t *testing.T) {
	e := &keywordEmbedder{}
	r := newTestRetriever(e)

	// Long enough to split into several chunks; tremor density decreases
	// through the document so ranking for a tremor query is predictable.
	var b strings.Builder
	b.WriteString(strings.Repeat("tremor tremor tremor shaking of the hands. ", 25))
	b.WriteString(strings.Repeat("fever and chills reported overnight watch. ", 25))
	b.WriteString(strings.Repeat("unremarkable vitals and normal gait noted. ", 25))
	doc := writeDoc(t, t.TempDir(), "history.txt", b.String())

	require.NoError(t, r.EnsureIndex(context.Background(), "ns", doc))
	n := r.ChunkCount("ns")
	require.Greater(t, n, 2)

	snippets, err := r.Search(context.Background(), "ns", "tremor", 2)
	require.NoError(t, err)
	assert.Len(t, snippets, 2)
	assert.Contains(t, snippets[0], "tremor")

	// k larger than chunk count returns everything.
	snippets, err = r.Search(context.Background(), "ns", "tremor", n+10)
	require.NoError(t, err)
	assert.Len(t, snippets, n)
}

func TestSearchEmbeddingOutage(t *testing.T) {
	e := &keywordEmbedder{}
	r := newTestRetriever(e)
	doc := writeDoc(t, t.TempDir(), "history.txt", "Patient reports hand tremor.")
	require.NoError(t, r.EnsureIndex(context.Background(), "ns", doc))

	e.err = errors.New("embedding service down")
	_, err := r.Search(context.Background(), "ns", "tremor", 4)

	assert.Error(t, err)
}

func TestFormatContext(t *testing.T) {
	got := FormatContext([]string{"first snippet", "second snippet"})
	assert.Equal(t, "[1] first snippet\n\n[2] second snippet", got)

	assert.Equal(t, "", FormatContext(nil))
}
