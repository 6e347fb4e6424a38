package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuchat/docuchat/internal/embed"
	"github.com/docuchat/docuchat/internal/model"
)

// Searcher is the unified similarity search over the three content tables.
// Satisfied by repo.SearchRepo.
type Searcher interface {
	SearchAllContent(ctx context.Context, queryEmbedding []float32, threshold float64, count int, locationIDs []string) ([]model.SearchResult, error)
}

// LocationLister scopes retrieval to the caller's organization.
type LocationLister interface {
	ListIDsByOrganization(ctx context.Context, orgID string) ([]string, error)
}

// Engine embeds a query and finds the most similar indexed content within
// the caller's organization.
type Engine struct {
	embedder  embed.Embedder
	searcher  Searcher
	locations LocationLister
	threshold float64
	count     int
}

func NewEngine(embedder embed.Embedder, searcher Searcher, locations LocationLister, threshold float64, count int) *Engine {
	if threshold <= 0 {
		threshold = 0.2
	}
	if count <= 0 {
		count = 5
	}
	return &Engine{
		embedder:  embedder,
		searcher:  searcher,
		locations: locations,
		threshold: threshold,
		count:     count,
	}
}

// Search embeds the query, optionally enriched with image-derived context,
// and returns ranked matches plus the embedding token cost for the caller to
// account.
func (e *Engine) Search(ctx context.Context, caller model.Caller, query, imageContext string) ([]model.SearchResult, int, error) {
	combined := query
	if strings.TrimSpace(imageContext) != "" {
		combined = query + " Context from image: " + imageContext
	}
	vector, tokens, err := embed.EmbedOne(ctx, e.embedder, combined)
	if err != nil {
		return nil, 0, fmt.Errorf("embed query: %w", err)
	}
	locationIDs, err := e.locations.ListIDsByOrganization(ctx, caller.OrganizationID)
	if err != nil {
		return nil, tokens, fmt.Errorf("list locations: %w", err)
	}
	if len(locationIDs) == 0 {
		return nil, tokens, nil
	}
	results, err := e.searcher.SearchAllContent(ctx, vector, e.threshold, e.count, locationIDs)
	if err != nil {
		return nil, tokens, fmt.Errorf("similarity search: %w", err)
	}
	logutil.GetLogger(ctx).Debug("retrieval done",
		zap.Int("results", len(results)), zap.Int("embed_tokens", tokens))
	return results, tokens, nil
}

// FormatContext renders retrieved items into one context block grouped by
// content type. Every entry keeps its provenance so model answers stay
// traceable to origin content.
func FormatContext(results []model.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	groups := map[string][]model.SearchResult{}
	for _, r := range results {
		groups[r.ContentType] = append(groups[r.ContentType], r)
	}
	var b strings.Builder
	writeGroup := func(title, contentType string) {
		items := groups[contentType]
		if len(items) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(title + ":\n")
		for _, item := range items {
			b.WriteString(formatEntry(item))
		}
	}
	writeGroup("Text content", model.ContentTypeText)
	writeGroup("Tables", model.ContentTypeTable)
	writeGroup("Images", model.ContentTypeImage)
	return b.String()
}

func formatEntry(item model.SearchResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("- [document %s, page %d", item.Info.DocumentID, item.Info.PageNumber))
	switch item.ContentType {
	case model.ContentTypeTable:
		if item.Info.TableNumber > 0 {
			b.WriteString(fmt.Sprintf(", table %d", item.Info.TableNumber))
		}
	case model.ContentTypeImage:
		if item.Info.ImageNumber > 0 {
			b.WriteString(fmt.Sprintf(", image %d", item.Info.ImageNumber))
		}
	}
	b.WriteString("] ")
	b.WriteString(strings.TrimSpace(item.Content))
	if item.ContentType == model.ContentTypeTable && item.Info.HTMLContent != "" {
		b.WriteString("\n  ")
		b.WriteString(item.Info.HTMLContent)
	}
	b.WriteString("\n")
	return b.String()
}

// Sources converts retrieved items into the structured records attached to
// an assistant message.
func Sources(results []model.SearchResult) []model.Source {
	sources := make([]model.Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, model.Source{
			DocumentID:      r.Info.DocumentID,
			PageNumber:      r.Info.PageNumber,
			Content:         r.Content,
			ContentType:     r.ContentType,
			SimilarityScore: r.Similarity,
			DocumentName:    r.Info.DocumentName,
			FilePath:        r.Info.FilePath,
		})
	}
	return sources
}
