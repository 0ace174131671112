package embedding

import "context"

// Provider defines the interface for generating text embeddings
type Provider interface {
	// Embed returns one vector per input text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension reports the expected vector width (0 when unknown)
	Dimension() int
}
