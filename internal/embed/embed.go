// Package embed maps chunk texts and queries to fixed-dimension vectors via
// a Genkit embedder. Batch and query paths use the same underlying model, so
// query vectors are directly comparable to stored document vectors.
package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
)

// ErrEmbedding indicates the embedding provider was unreachable, rate
// limited, or returned a malformed response. Fatal for ingestion and for the
// document retrieval sub-path.
var ErrEmbedding = errors.New("embedding service error")

// Embedder wraps a Genkit ai.Embedder with batch and single-query helpers.
type Embedder struct {
	embedder ai.Embedder
}

// New creates an Embedder.
func New(embedder ai.Embedder) *Embedder {
	return &Embedder{embedder: embedder}
}

// Documents embeds a batch of texts, returning one vector per input in
// order. All vectors share the model's fixed dimension; a short or empty
// response is an ErrEmbedding, never a silent truncation.
func (e *Embedder) Documents(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input := make([]*ai.Document, len(texts))
	for i, text := range texts {
		input[i] = ai.DocumentFromText(text, nil)
	}

	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrEmbedding, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	dim := -1
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at index %d", ErrEmbedding, i)
		}
		if dim == -1 {
			dim = len(emb.Embedding)
		} else if len(emb.Embedding) != dim {
			return nil, fmt.Errorf("%w: inconsistent dimensions %d and %d", ErrEmbedding, dim, len(emb.Embedding))
		}
		vectors[i] = emb.Embedding
	}
	return vectors, nil
}

// Query embeds a single query string.
func (e *Embedder) Query(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Documents(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
