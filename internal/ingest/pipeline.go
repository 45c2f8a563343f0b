package ingest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/docchat/docchat/internal/vectorstore"
)

// Embedder computes embeddings for a batch of chunks.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline loads a document, splits it into overlapping chunks, embeds them,
// and upserts the result into the vector store.
type Pipeline struct {
	embedder Embedder
	store    vectorstore.VectorStore
	size     int
	overlap  int
	log      *logrus.Logger
}

func NewPipeline(embedder Embedder, store vectorstore.VectorStore, size, overlap int, log *logrus.Logger) *Pipeline {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{embedder: embedder, store: store, size: size, overlap: overlap, log: log}
}

// Process ingests one file and returns the number of chunks indexed.
// A failure at any stage surfaces as a single error; chunks upserted before
// the failure are left in place.
func (p *Pipeline) Process(ctx context.Context, path string) (int, error) {
	content, err := Load(path)
	if err != nil {
		return 0, err
	}

	chunks := Split(content, p.size, p.overlap)
	if len(chunks) == 0 {
		p.log.WithField("path", path).Warn("document produced no chunks")
		return 0, nil
	}

	vectors, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("ingest: embed %s: %w", path, err)
	}

	source := filepath.Base(path)
	docs := make([]vectorstore.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, vectorstore.Document{
			ID:      uuid.NewString(),
			Content: chunk,
			Source:  source,
			Chunk:   i,
			Vector:  vectors[i],
		})
	}

	if err := p.store.Upsert(ctx, docs); err != nil {
		return 0, fmt.Errorf("ingest: index %s: %w", path, err)
	}

	p.log.WithFields(logrus.Fields{
		"path":   path,
		"chunks": len(docs),
	}).Info("document indexed")
	return len(docs), nil
}
