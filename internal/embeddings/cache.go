package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/JaimeStill/callbook/internal/similarity"
	"github.com/JaimeStill/callbook/pkg/cache"
)

// Cached memoizes vectors by model and text hash. Cache failures degrade to
// a direct call.
type Cached struct {
	next   Embedder
	store  cache.System
	logger *slog.Logger
}

// WithCache wraps next with store. A disabled store returns next unchanged.
func WithCache(next Embedder, store cache.System, logger *slog.Logger) Embedder {
	if store == nil || !store.Enabled() {
		return next
	}
	return &Cached{
		next:   next,
		store:  store,
		logger: logger.With("system", "embeddings-cache"),
	}
}

// Key returns the cache key for text under model.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + model + ":" + hex.EncodeToString(sum[:])
}

func (c *Cached) Model() string {
	return c.next.Model()
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(c.next.Model(), text)

	if v, ok := c.lookup(ctx, key); ok {
		return v, nil
	}

	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.save(ctx, key, v)
	return v, nil
}

func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var (
		missIdx   []int
		missTexts []string
	)
	for i, t := range texts {
		if v, ok := c.lookup(ctx, Key(c.next.Model(), t)); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, v := range vectors {
		i := missIdx[j]
		out[i] = v
		if v != nil {
			c.save(ctx, Key(c.next.Model(), texts[i]), v)
		}
	}
	return out, nil
}

func (c *Cached) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("embedding cache get failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	v, err := similarity.Decode(data)
	if err != nil || len(v) == 0 {
		return nil, false
	}
	return v, true
}

func (c *Cached) save(ctx context.Context, key string, v []float32) {
	if err := c.store.Set(ctx, key, similarity.Encode(v)); err != nil {
		c.logger.Warn("embedding cache set failed", "error", err)
	}
}
