package vectorstore

import "context"

// Document is one embedded chunk to be indexed.
type Document struct {
	// ID is the point id; must be a UUID for stores that require it.
	ID string

	// Content is the chunk text.
	Content string

	// Source is the originating filename.
	Source string

	// Chunk is the zero-based position of this chunk within its source.
	Chunk int

	Vector []float32
}

// SearchResult is a single similarity-search hit.
type SearchResult struct {
	ID      string
	Score   float32
	Content string
	Source  string
}

// VectorStore is a technology-agnostic interface over a vector index.
type VectorStore interface {
	// EnsureReady prepares the backing collection, creating it if missing.
	EnsureReady(ctx context.Context) error

	// Upsert writes documents into the index, replacing points with the
	// same id.
	Upsert(ctx context.Context, docs []Document) error

	// Search returns the most similar documents for a query vector.
	Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)

	// Close releases any resources held by the store.
	Close() error
}
