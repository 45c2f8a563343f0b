package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// EmbedCache stores embeddings keyed by their input text so reindexing does
// not recompute vectors for unchanged chunks.
type EmbedCache interface {
	Get(ctx context.Context, text string) ([]float32, bool)
	Set(ctx context.Context, text string, vector []float32)
}

// Embedder computes text embeddings through the OpenAI embeddings API.
type Embedder struct {
	client *openai.Client
	model  string
	cache  EmbedCache
}

// NewEmbedder builds an Embedder. cache may be nil to disable caching.
func NewEmbedder(apiKey, model string, cache EmbedCache) (*Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedder: api key is required")
	}
	if model == "" {
		model = "text-embedding-ada-002"
	}
	return &Embedder{
		client: openai.NewClient(apiKey),
		model:  model,
		cache:  cache,
	}, nil
}

// Embed returns the vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.cache != nil {
		if vec, ok := e.cache.Get(ctx, text); ok {
			return vec, nil
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedder: empty response")
	}

	vec := resp.Data[0].Embedding
	if e.cache != nil {
		e.cache.Set(ctx, text, vec)
	}
	return vec, nil
}

// EmbedBatch returns vectors for all texts, in order. Cached texts are not
// resent to the provider.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if e.cache != nil {
			if vec, ok := e.cache.Get(ctx, t); ok {
				out[i] = vec
				continue
			}
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: missing,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if len(resp.Data) != len(missing) {
		return nil, fmt.Errorf("embedder: got %d embeddings for %d inputs", len(resp.Data), len(missing))
	}

	for j, d := range resp.Data {
		out[missingIdx[j]] = d.Embedding
		if e.cache != nil {
			e.cache.Set(ctx, missing[j], d.Embedding)
		}
	}
	return out, nil
}
