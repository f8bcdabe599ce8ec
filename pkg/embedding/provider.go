// Package embedding provides the embedding provider client: an
// OpenAI-compatible HTTP API wrapper with rate limiting, circuit breaking,
// and an optional bbolt-backed read-through cache.
package embedding

import (
	"context"
	"errors"
)

// Provider produces fixed-length embedding vectors for text.
type Provider interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Model identifies the embedding model.
	Model() string
	// Dimensions is the fixed vector length the model produces.
	Dimensions() int
}

// ErrDisabled is returned by every call on a provider constructed without
// credentials. Construction succeeds so the rest of the service can run;
// embedding operations fail fast instead of attempting network calls.
var ErrDisabled = errors.New("embedding service disabled: missing API key")
