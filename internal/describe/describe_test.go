package describe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/ai"
)

type fakeChatProvider struct {
	lastReq *ai.CompletionRequest
	text    string
	usage   ai.Usage
	err     error
}

func (f *fakeChatProvider) Name() string { return "fake" }

func (f *fakeChatProvider) Complete(ctx context.Context, req *ai.CompletionRequest) (string, ai.Usage, error) {
	f.lastReq = req
	return f.text, f.usage, f.err
}

func (f *fakeChatProvider) StreamComplete(ctx context.Context, req *ai.CompletionRequest, onDelta func(string)) (string, ai.Usage, error) {
	return f.Complete(ctx, req)
}

func newTestDescriber(provider ai.IChatProvider) *Describer {
	return New(provider, "chat-model", "vision-model", 500, 0.5)
}

func TestTableDescription(t *testing.T) {
	provider := &fakeChatProvider{text: "a price list", usage: ai.Usage{TotalTokens: 42}}
	d := newTestDescriber(provider)

	description, tokens := d.Table(context.Background(), [][]string{
		{"name", "price"},
		{"apple", "1.50"},
	})
	require.Equal(t, "a price list", description)
	require.Equal(t, 42, tokens)
	require.Equal(t, "chat-model", provider.lastReq.Model)
	require.Len(t, provider.lastReq.Messages, 1)
	prompt := provider.lastReq.Messages[0].Text
	require.Contains(t, prompt, "name\tprice")
	require.Contains(t, prompt, "apple\t1.50")
}

func TestTableDescriptionFallback(t *testing.T) {
	provider := &fakeChatProvider{err: errors.New("provider down")}
	d := newTestDescriber(provider)

	description, tokens := d.Table(context.Background(), [][]string{{"a"}})
	require.Equal(t, "Table description unavailable", description)
	require.Equal(t, 0, tokens)
}

func TestImageDescription(t *testing.T) {
	provider := &fakeChatProvider{text: "a bar chart", usage: ai.Usage{TotalTokens: 99}}
	d := newTestDescriber(provider)

	description, tokens := d.Image(context.Background(), []byte{1, 2, 3}, "image/png", "Q3 revenue")
	require.Equal(t, "a bar chart", description)
	require.Equal(t, 99, tokens)
	require.Equal(t, "vision-model", provider.lastReq.Model)
	msg := provider.lastReq.Messages[0]
	require.NotNil(t, msg.Image)
	require.Equal(t, "image/png", msg.Image.MIMEType)
	require.Contains(t, msg.Text, "OCR detected text: Q3 revenue")
}

func TestImageDescriptionOmitsBlankOCRHint(t *testing.T) {
	provider := &fakeChatProvider{text: "a photo"}
	d := newTestDescriber(provider)

	d.Image(context.Background(), []byte{1}, "image/jpeg", "   ")
	require.False(t, strings.Contains(provider.lastReq.Messages[0].Text, "OCR detected text"))
}

func TestImageDescriptionFallbackEmbedsOCRText(t *testing.T) {
	provider := &fakeChatProvider{err: errors.New("provider down")}
	d := newTestDescriber(provider)

	description, tokens := d.Image(context.Background(), []byte{1}, "image/jpeg", "serial 99")
	require.Equal(t, 0, tokens)
	require.Contains(t, description, "serial 99")
}
