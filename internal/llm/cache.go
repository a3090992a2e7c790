package llm

import (
	"context"
	"time"

	"github.com/josinaldojr/book-rag/internal/rag"
	"github.com/patrickmn/go-cache"
)

// CachedEmbedder memoises query embeddings. Document embeddings are always
// computed, ingestion is one-shot.
type CachedEmbedder struct {
	next  rag.EmbeddingsClient
	cache *cache.Cache
}

// NewCachedEmbedder returns next unchanged when ttl is not positive.
func NewCachedEmbedder(next rag.EmbeddingsClient, ttl time.Duration) rag.EmbeddingsClient {
	if ttl <= 0 {
		return next
	}
	return &CachedEmbedder{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string, task rag.TaskType) ([]float32, error) {
	if task != rag.TaskQuery {
		return c.next.Embed(ctx, text, task)
	}

	key := string(task) + "\x00" + text
	if x, found := c.cache.Get(key); found {
		return x.([]float32), nil
	}

	vec, err := c.next.Embed(ctx, text, task)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, vec, cache.DefaultExpiration)
	return vec, nil
}
