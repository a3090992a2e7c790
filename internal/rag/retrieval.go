package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Retriever embeds a query and returns the stored text of its nearest
// neighbours, in the order the store ranked them.
type Retriever struct {
	embeddings EmbeddingsClient
	store      VectorStore
	limit      int
	logger     *zap.Logger
}

func NewRetriever(store VectorStore, embeddings EmbeddingsClient, limit int, logger *zap.Logger) *Retriever {
	if limit <= 0 {
		limit = 4
	}
	return &Retriever{
		embeddings: embeddings,
		store:      store,
		limit:      limit,
		logger:     logger,
	}
}

// Retrieve returns ErrStoreUnavailable when no store is configured and
// passes embedding and search errors through.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int) ([]string, error) {
	if r.store == nil {
		return nil, ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = r.limit
	}

	vec, err := r.embeddings.Embed(ctx, query, TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.store.Search(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		texts = append(texts, h.Text)
	}
	return texts, nil
}

// retrieveOrDegrade never fails: an unconfigured store or any retrieval
// error yields no hits, which sends the assembler down its no-context path.
func (r *Retriever) retrieveOrDegrade(ctx context.Context, query string) []string {
	texts, err := r.Retrieve(ctx, query, r.limit)
	if err != nil {
		if !errors.Is(err, ErrStoreUnavailable) {
			r.logger.Warn("retrieval failed, continuing without context", zap.Error(err))
		}
		return nil
	}
	return texts
}
