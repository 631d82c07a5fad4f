package ai

import (
	"context"
	"encoding/json"
	"time"

	"notes-qa-platform/internal/logger"
	"notes-qa-platform/utils"

	"github.com/redis/go-redis/v9"
)

const embedCacheTTL = 7 * 24 * time.Hour

// CachedEmbedder is a read-through Redis cache in front of another Embedder.
// Embeddings are deterministic per model+text, so cached vectors never go
// stale. Cache failures fall back to the inner embedder.
type CachedEmbedder struct {
	inner Embedder
	rdb   *redis.Client
	model string
}

func NewCachedEmbedder(inner Embedder, rdb *redis.Client, model string) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, rdb: rdb, model: model}
}

func (c *CachedEmbedder) Dimension() int { return c.inner.Dimension() }

func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	// Collect cache misses, preserving original positions
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if vec := c.get(ctx, text); vec != nil {
			vectors[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	embedded, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, vec := range embedded {
		vectors[missIdx[j]] = vec
		c.set(ctx, missTexts[j], vec)
	}

	return vectors, nil
}

func (c *CachedEmbedder) cacheKey(text string) string {
	return "embed:" + c.model + ":" + utils.SHA256Hex([]byte(text))
}

func (c *CachedEmbedder) get(ctx context.Context, text string) []float32 {
	data, err := c.rdb.Get(ctx, c.cacheKey(text)).Bytes()
	if err != nil {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil
	}
	if len(vec) != c.inner.Dimension() {
		return nil
	}
	return vec
}

func (c *CachedEmbedder) set(ctx context.Context, text string, vec []float32) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.cacheKey(text), data, embedCacheTTL).Err(); err != nil {
		logger.Debug("embedding cache write failed", "error", err)
	}
}
