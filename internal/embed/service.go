package embed

import (
	"context"
	"fmt"
	"strings"

	"github.com/docuchat/docuchat/internal/ai"
	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
)

// Embedder converts texts into vectors and reports the provider token cost.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, int, error)
	Model() string
}

type Service struct {
	provider ai.IEmbedProvider
	model    string
}

func NewService(provider ai.IEmbedProvider, model string) *Service {
	return &Service{provider: provider, model: model}
}

func (s *Service) Model() string {
	return s.model
}

// Embed trims the inputs, drops blanks and sends the remainder as one
// batched provider call. An input list that is empty after cleaning is
// rejected. The returned token count is provider-reported, never estimated.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, int, error) {
	cleaned := make([]string, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		cleaned = append(cleaned, text)
	}
	if len(cleaned) == 0 {
		return nil, 0, fmt.Errorf("%w: no text content to embed", appErr.ErrInvalid)
	}
	vectors, usage, err := s.provider.Embed(ctx, s.model, cleaned)
	if err != nil {
		return nil, 0, err
	}
	return vectors, usage.TotalTokens, nil
}

// EmbedOne is the single-text convenience used by retrieval and ingestion.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, int, error) {
	vectors, tokens, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, 0, err
	}
	return vectors[0], tokens, nil
}
