package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short text", 1000, 150)

	if len(chunks) != 1 {
		t.Fatalf("chunk count = %d, want 1", len(chunks))
	}
	if chunks[0].Text != "short text" {
		t.Errorf("chunk text = %q, want input unchanged", chunks[0].Text)
	}
	if chunks[0].Position != 0 {
		t.Errorf("chunk position = %d, want 0", chunks[0].Position)
	}
}

func TestSplitTextGeometry(t *testing.T) {
	text := strings.Repeat("abcdefghij", 250) // 2500 runes
	chunkSize := 1000
	overlap := 150

	chunks := SplitText(text, chunkSize, overlap)

	if len(chunks) < 2 {
		t.Fatalf("chunk count = %d, want multiple chunks", len(chunks))
	}

	step := chunkSize - overlap
	for i, c := range chunks {
		if c.Position != i*step {
			t.Errorf("chunk %d position = %d, want %d", i, c.Position, i*step)
		}
		if len([]rune(c.Text)) > chunkSize {
			t.Errorf("chunk %d length = %d, exceeds %d", i, len([]rune(c.Text)), chunkSize)
		}
	}

	// Neighbouring chunks share the overlap region.
	first := []rune(chunks[0].Text)
	second := []rune(chunks[1].Text)
	tail := string(first[len(first)-overlap:])
	head := string(second[:overlap])
	if tail != head {
		t.Error("overlap region differs between neighbouring chunks")
	}

	// Nothing lost at the end.
	last := chunks[len(chunks)-1]
	if last.Position+len([]rune(last.Text)) != len([]rune(text)) {
		t.Error("last chunk does not reach end of input")
	}
}

func TestSplitTextOverlapLargerThanChunk(t *testing.T) {
	text := strings.Repeat("x", 50)
	chunks := SplitText(text, 10, 20)

	// Falls back to non-overlapping steps instead of looping forever.
	if len(chunks) != 5 {
		t.Fatalf("chunk count = %d, want 5", len(chunks))
	}
}
