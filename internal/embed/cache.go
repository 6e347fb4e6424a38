package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// WrapLRUCache memoizes embeddings in an in-process expiring LRU. A batch is
// served from cache only when every text hits; partial hits fall through to
// the provider so the batch stays a single call. Cache hits cost zero
// provider tokens.
func WrapLRUCache(next Embedder, size int, ttl time.Duration) Embedder {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &lruEmbedder{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  Embedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) Model() string {
	return l.next.Model()
}

func (l *lruEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, int, error) {
	cached := make([][]float32, len(texts))
	allHit := true
	for i, text := range texts {
		if vec, ok := l.cache.Get(l.key(text)); ok {
			cached[i] = cloneVector(vec)
			continue
		}
		allHit = false
		break
	}
	if allHit && len(texts) > 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit", zap.Int("batch", len(texts)))
		return cached, 0, nil
	}
	vectors, tokens, err := l.next.Embed(ctx, texts)
	if err != nil {
		return nil, 0, err
	}
	if len(vectors) == len(texts) {
		for i, text := range texts {
			l.cache.Add(l.key(text), cloneVector(vectors[i]))
		}
	}
	return vectors, tokens, nil
}

// key hashes the trimmed text so padded variants of the same input share
// a cache entry, matching the trim the service applies before embedding.
func (l *lruEmbedder) key(text string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return l.next.Model() + ":" + hex.EncodeToString(hash[:])
}

func cloneVector(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
