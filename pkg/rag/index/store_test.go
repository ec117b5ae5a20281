package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func chunk(id, fp string, vec []float32) Chunk {
	return Chunk{ID: id, Fingerprint: fp, Text: "text " + id, Vector: vec}
}

func TestHasBatch(t *testing.T) {
	s := NewStore()

	assert.False(t, s.HasBatch("ns", "fp1"))

	s.AddBatch("ns", "fp1", []Chunk{chunk("a", "fp1", []float32{1, 0})})

	assert.True(t, s.HasBatch("ns", "fp1"))
	assert.False(t, s.HasBatch("ns", "fp2"))
	assert.False(t, s.HasBatch("other", "fp1"))
}

func TestAddBatchAccumulatesAcrossFingerprints(t *testing.T) {
	s := NewStore()

	s.AddBatch("ns", "fp1", []Chunk{chunk("a", "fp1", []float32{1, 0})})
	s.AddBatch("ns", "fp2", []Chunk{chunk("b", "fp2", []float32{0, 1})})

	// Superseded batches are not purged.
	assert.Equal(t, 2, s.Count("ns"))
	assert.True(t, s.HasBatch("ns", "fp1"))
	assert.True(t, s.HasBatch("ns", "fp2"))
}

func TestNearestOrderingAndBound(t *testing.T) {
	s := NewStore()
	s.AddBatch("ns", "fp", []Chunk{
		chunk("far", "fp", []float32{0, 1}),
		chunk("close", "fp", []float32{1, 0}),
		chunk("mid", "fp", []float32{0.7, 0.7}),
	})

	got := s.Nearest("ns", []float32{1, 0}, 2)

	assert.Len(t, got, 2)
	assert.Equal(t, "close", got[0].Chunk.ID)
	assert.Equal(t, "mid", got[1].Chunk.ID)
	assert.GreaterOrEqual(t, got[0].Similarity, got[1].Similarity)
}

func TestNearestFewerChunksThanK(t *testing.T) {
	s := NewStore()
	s.AddBatch("ns", "fp", []Chunk{chunk("only", "fp", []float32{1, 0})})

	got := s.Nearest("ns", []float32{1, 0}, 4)

	assert.Len(t, got, 1)
}

func TestNearestUnknownNamespace(t *testing.T) {
	s := NewStore()

	assert.Empty(t, s.Nearest("missing", []float32{1, 0}, 4))
}
