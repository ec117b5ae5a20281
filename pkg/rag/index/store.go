package index

import (
	"sort"
	"sync"
)

// Chunk is the unit of retrieval: a bounded span of source text plus its
// embedding, tagged with the fingerprint of the content version it came from.
type Chunk struct {
	ID          string
	Fingerprint string
	Text        string
	Position    int
	Vector      []float32
}

// Scored pairs a chunk with its similarity to a query vector.
type Scored struct {
	Chunk      Chunk
	Similarity float32
}

// Store is the process-wide in-memory vector store, partitioned by namespace
// (one namespace per case+phase pair). Chunks from superseded fingerprints are
// not purged; the store tolerates accumulation across content revisions.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	fingerprints map[string]bool
	chunks       []Chunk
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]*collection),
	}
}

// HasBatch reports whether a batch with this exact fingerprint has already
// been ingested into the namespace.
func (s *Store) HasBatch(namespace, fingerprint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[namespace]
	if !ok {
		return false
	}
	return col.fingerprints[fingerprint]
}

// AddBatch commits a fingerprint-qualified chunk batch to the namespace.
// A search immediately following AddBatch observes the new chunks.
func (s *Store) AddBatch(namespace, fingerprint string, chunks []Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[namespace]
	if !ok {
		col = &collection{fingerprints: make(map[string]bool)}
		s.collections[namespace] = col
	}
	col.fingerprints[fingerprint] = true
	col.chunks = append(col.chunks, chunks...)
}

// Count returns the number of chunks stored under the namespace.
func (s *Store) Count(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[namespace]
	if !ok {
		return 0
	}
	return len(col.chunks)
}

// Nearest returns the min(n, k) chunks closest to the query vector, ordered
// by descending similarity. No relevance threshold is applied: weak context
// beats silence for a coaching generator.
func (s *Store) Nearest(namespace string, query []float32, k int) []Scored {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[namespace]
	if !ok || k <= 0 {
		return nil
	}

	scored := make([]Scored, 0, len(col.chunks))
	for _, c := range col.chunks {
		scored = append(scored, Scored{Chunk: c, Similarity: dot(query, c.Vector)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// dot is cosine similarity for unit-length vectors.
func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
