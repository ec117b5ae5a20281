package utils

// Chunk is one bounded span of source text plus its rune offset in the
// original document.
type Chunk struct {
	Text     string
	Position int
}

// SplitText splits a long string into chunks of approximately 'chunkSize'
// runes with 'overlap' runes shared between neighbours, so a concept that
// straddles a boundary is still retrievable from one side.
// Boundaries may fall mid-sentence; this is a simple character-based splitter.
func SplitText(text string, chunkSize int, overlap int) []Chunk {
	runes := []rune(text)
	totalLen := len(runes)

	if totalLen <= chunkSize {
		return []Chunk{{Text: text, Position: 0}}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	var chunks []Chunk
	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, Chunk{Text: string(runes[i:end]), Position: i})

		if end == totalLen {
			break
		}
	}

	return chunks
}
