package embed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/ai"
	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
)

type fakeEmbedProvider struct {
	calls   int
	batches [][]string
	tokens  int
}

func (f *fakeEmbedProvider) Name() string { return "fake" }

func (f *fakeEmbedProvider) Embed(ctx context.Context, model string, texts []string) ([][]float32, ai.Usage, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), float32(i)}
	}
	return vectors, ai.Usage{TotalTokens: f.tokens}, nil
}

func TestServiceEmbedCleansInput(t *testing.T) {
	provider := &fakeEmbedProvider{tokens: 7}
	svc := NewService(provider, "test-model")

	vectors, tokens, err := svc.Embed(context.Background(), []string{"  hello  ", "", "   ", "world"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	require.Equal(t, 7, tokens)
	require.Equal(t, 1, provider.calls)
	require.Equal(t, []string{"hello", "world"}, provider.batches[0])
}

func TestServiceEmbedRejectsEmpty(t *testing.T) {
	svc := NewService(&fakeEmbedProvider{}, "test-model")

	_, _, err := svc.Embed(context.Background(), []string{"", "   "})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, _, err = svc.Embed(context.Background(), nil)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestEmbedOne(t *testing.T) {
	provider := &fakeEmbedProvider{tokens: 3}
	svc := NewService(provider, "test-model")

	vector, tokens, err := EmbedOne(context.Background(), svc, "query")
	require.NoError(t, err)
	require.NotEmpty(t, vector)
	require.Equal(t, 3, tokens)
}

func TestLRUCacheFullHitCostsNothing(t *testing.T) {
	provider := &fakeEmbedProvider{tokens: 5}
	cached := WrapLRUCache(NewService(provider, "test-model"), 10, time.Minute)

	first, tokens, err := cached.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Equal(t, 5, tokens)
	require.Equal(t, 1, provider.calls)

	second, tokens, err := cached.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Equal(t, 0, tokens)
	require.Equal(t, 1, provider.calls)
	require.Equal(t, first, second)
}

func TestLRUCachePaddedVariantSharesEntry(t *testing.T) {
	provider := &fakeEmbedProvider{tokens: 5}
	cached := WrapLRUCache(NewService(provider, "test-model"), 10, time.Minute)

	first, tokens, err := cached.Embed(context.Background(), []string{"same text"})
	require.NoError(t, err)
	require.Equal(t, 5, tokens)
	require.Equal(t, 1, provider.calls)

	// the service trims before embedding, so a padded variant must land on
	// the same cache entry instead of a second provider call
	second, tokens, err := cached.Embed(context.Background(), []string{"  same text  "})
	require.NoError(t, err)
	require.Equal(t, 0, tokens)
	require.Equal(t, 1, provider.calls)
	require.Equal(t, first, second)
}

func TestLRUCachePartialHitFallsThrough(t *testing.T) {
	provider := &fakeEmbedProvider{tokens: 5}
	cached := WrapLRUCache(NewService(provider, "test-model"), 10, time.Minute)

	_, _, err := cached.Embed(context.Background(), []string{"alpha"})
	require.NoError(t, err)

	_, tokens, err := cached.Embed(context.Background(), []string{"alpha", "gamma"})
	require.NoError(t, err)
	require.Equal(t, 5, tokens)
	require.Equal(t, 2, provider.calls)
	// the miss batch stays a single provider call carrying both texts
	require.Equal(t, []string{"alpha", "gamma"}, provider.batches[1])
}

func TestWrapLRUCacheDisabled(t *testing.T) {
	svc := NewService(&fakeEmbedProvider{}, "test-model")
	require.Equal(t, Embedder(svc), WrapLRUCache(svc, 0, time.Minute))
	require.Equal(t, Embedder(svc), WrapLRUCache(svc, 10, 0))
}
