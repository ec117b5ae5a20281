package docload

import (
	"os"
	"strings"
)

// Loader reads a source document into an ordered sequence of page texts.
// A missing or unreadable source yields an empty sequence, not an error;
// indexes built from it simply stay empty.
type Loader interface {
	Load(sourceRef string) ([]string, error)
}

// TextLoader reads plain-text case documents from disk. Form-feed characters
// delimit pages, matching what the PDF extraction step emits upstream.
type TextLoader struct{}

func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

func (l *TextLoader) Load(sourceRef string) ([]string, error) {
	if sourceRef == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(sourceRef)
	if err != nil {
		// Missing content degrades to an empty index, never a caller error.
		return nil, nil
	}

	var pages []string
	for _, page := range strings.Split(string(raw), "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		pages = append(pages, page)
	}

	return pages, nil
}
