package embedding

import "context"

// Provider generates fixed-dimension text embeddings. Index and query
// embeddings for a namespace must come from the same provider so they share
// a vector space.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
