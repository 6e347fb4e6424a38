package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/model"
)

type fakeEmbedder struct {
	lastText string
	tokens   int
}

func (f *fakeEmbedder) Model() string { return "fake-embed" }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, int, error) {
	f.lastText = texts[0]
	return [][]float32{{0.1, 0.2}}, f.tokens, nil
}

type fakeSearcher struct {
	lastThreshold float64
	lastCount     int
	lastLocations []string
	results       []model.SearchResult
}

func (f *fakeSearcher) SearchAllContent(ctx context.Context, queryEmbedding []float32, threshold float64, count int, locationIDs []string) ([]model.SearchResult, error) {
	f.lastThreshold = threshold
	f.lastCount = count
	f.lastLocations = locationIDs
	return f.results, nil
}

type fakeLocations struct {
	ids []string
}

func (f *fakeLocations) ListIDsByOrganization(ctx context.Context, orgID string) ([]string, error) {
	return f.ids, nil
}

func caller() model.Caller {
	return model.Caller{ID: "user-1", OrganizationID: "org-1", Role: model.RoleMember}
}

func sampleResults() []model.SearchResult {
	return []model.SearchResult{
		{
			ContentType: model.ContentTypeText,
			Content:     "revenue grew 12%",
			Similarity:  0.91,
			Info:        model.AdditionalInfo{DocumentID: "doc-1", DocumentName: "annual.pdf", FilePath: "documents/doc-1/annual.pdf", PageNumber: 3},
		},
		{
			ContentType: model.ContentTypeTable,
			Content:     "quarterly revenue table",
			Similarity:  0.72,
			Info:        model.AdditionalInfo{DocumentID: "doc-1", PageNumber: 4, TableNumber: 2, HTMLContent: "<table><tr><th>q</th></tr></table>"},
		},
		{
			ContentType: model.ContentTypeImage,
			Content:     "a bar chart of revenue",
			Similarity:  0.55,
			Info:        model.AdditionalInfo{DocumentID: "doc-2", PageNumber: 1, ImageNumber: 1},
		},
	}
}

func TestSearchCombinesImageContext(t *testing.T) {
	embedder := &fakeEmbedder{tokens: 9}
	searcher := &fakeSearcher{results: sampleResults()}
	engine := NewEngine(embedder, searcher, &fakeLocations{ids: []string{"loc-1", "loc-2"}}, 0.2, 5)

	results, tokens, err := engine.Search(context.Background(), caller(), "how did revenue do", "a chart showing growth")
	require.NoError(t, err)
	require.Equal(t, 9, tokens)
	require.Len(t, results, 3)
	require.Equal(t, "how did revenue do Context from image: a chart showing growth", embedder.lastText)
	require.Equal(t, []string{"loc-1", "loc-2"}, searcher.lastLocations)
	require.Equal(t, 0.2, searcher.lastThreshold)
	require.Equal(t, 5, searcher.lastCount)
}

func TestSearchWithoutImageContext(t *testing.T) {
	embedder := &fakeEmbedder{}
	engine := NewEngine(embedder, &fakeSearcher{}, &fakeLocations{ids: []string{"loc-1"}}, 0.2, 5)

	_, _, err := engine.Search(context.Background(), caller(), "plain question", "")
	require.NoError(t, err)
	require.Equal(t, "plain question", embedder.lastText)
}

func TestSearchNoLocationsShortCircuits(t *testing.T) {
	searcher := &fakeSearcher{results: sampleResults()}
	engine := NewEngine(&fakeEmbedder{tokens: 4}, searcher, &fakeLocations{}, 0.2, 5)

	results, tokens, err := engine.Search(context.Background(), caller(), "anything", "")
	require.NoError(t, err)
	require.Empty(t, results)
	// embedding already happened, its cost still surfaces
	require.Equal(t, 4, tokens)
	require.Nil(t, searcher.lastLocations)
}

func TestFormatContextGroupsByType(t *testing.T) {
	block := FormatContext(sampleResults())

	textIdx := strings.Index(block, "Text content:")
	tableIdx := strings.Index(block, "Tables:")
	imageIdx := strings.Index(block, "Images:")
	require.True(t, textIdx >= 0 && tableIdx > textIdx && imageIdx > tableIdx, block)

	require.Contains(t, block, "[document doc-1, page 3]")
	require.Contains(t, block, "[document doc-1, page 4, table 2]")
	require.Contains(t, block, "[document doc-2, page 1, image 1]")
	require.Contains(t, block, "<table><tr><th>q</th></tr></table>")
}

func TestFormatContextEmpty(t *testing.T) {
	require.Equal(t, "", FormatContext(nil))
}

func TestSources(t *testing.T) {
	sources := Sources(sampleResults())
	require.Len(t, sources, 3)
	require.Equal(t, model.Source{
		DocumentID:      "doc-1",
		PageNumber:      3,
		Content:         "revenue grew 12%",
		ContentType:     model.ContentTypeText,
		SimilarityScore: 0.91,
		DocumentName:    "annual.pdf",
		FilePath:        "documents/doc-1/annual.pdf",
	}, sources[0])
	require.Empty(t, Sources(nil))
}
