package agent

import (
	"context"
	"fmt"

	"github.com/docchat/docchat/internal/vectorstore"
)

// QueryEmbedder embeds a single query string.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorRetriever answers retrieval queries against the vector store.
type VectorRetriever struct {
	embedder QueryEmbedder
	store    vectorstore.VectorStore
}

func NewVectorRetriever(embedder QueryEmbedder, store vectorstore.VectorStore) *VectorRetriever {
	return &VectorRetriever{embedder: embedder, store: store}
}

// Retrieve implements Retriever.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retriever: embed query: %w", err)
	}

	results, err := r.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("retriever: search: %w", err)
	}

	excerpts := make([]string, 0, len(results))
	for _, res := range results {
		if res.Content == "" {
			continue
		}
		excerpts = append(excerpts, res.Content)
	}
	return excerpts, nil
}
