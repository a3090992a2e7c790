package vectorstore

import (
	"context"
	"fmt"

	"github.com/josinaldojr/book-rag/internal/config"
	"github.com/josinaldojr/book-rag/internal/db"
	"github.com/josinaldojr/book-rag/internal/rag"
)

// Open builds the backend named by cfg.VectorBackend. It returns a nil store
// when the backend is not configured, which the pipeline treats as
// retrieval disabled. The returned func releases connections.
func Open(ctx context.Context, cfg *config.Config) (rag.VectorStore, func(), error) {
	noop := func() {}

	if !cfg.VectorStoreConfigured() {
		return nil, noop, nil
	}

	switch cfg.VectorBackend {
	case "qdrant":
		s, err := NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantGRPCPort, cfg.Collection)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil

	case "pgvector":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return NewPgStore(pool, cfg.Collection), pool.Close, nil

	case "memory":
		return NewMemoryStore(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown VECTOR_BACKEND %q", cfg.VectorBackend)
	}
}
