package describe

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuchat/docuchat/internal/ai"
)

const (
	tablePrompt = "Please describe this table data in natural language, focusing on the key information and relationships:\n\n"
	imagePrompt = "Please describe this image in detail. If there is text in the image, mention it."

	tableFallback = "Table description unavailable"
	imageFallback = "Unable to generate image description due to API limitations. OCR text: "
)

// Describer turns tables and images into natural language summaries whose
// embeddings stand in for the raw content at retrieval time.
type Describer struct {
	provider    ai.IChatProvider
	chatModel   string
	visionModel string
	maxTokens   int
	temperature float64
}

func New(provider ai.IChatProvider, chatModel, visionModel string, maxTokens int, temperature float64) *Describer {
	return &Describer{
		provider:    provider,
		chatModel:   chatModel,
		visionModel: visionModel,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Table summarizes a grid of cells through the chat model. Provider failures
// degrade to a fixed fallback description at zero token cost so one bad call
// never fails the surrounding document.
func (d *Describer) Table(ctx context.Context, rows [][]string) (string, int) {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, "\t"))
	}
	text, usage, err := d.provider.Complete(ctx, &ai.CompletionRequest{
		Model:       d.chatModel,
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
		Messages: []ai.Message{
			{Role: ai.RoleUser, Text: tablePrompt + strings.Join(lines, "\n")},
		},
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("table description failed", zap.Error(err))
		return tableFallback, 0
	}
	return text, usage.TotalTokens
}

// Image summarizes a picture through the vision model, passing OCR findings
// along as a hint. On failure the OCR text itself becomes the description so
// the image still embeds to something searchable.
func (d *Describer) Image(ctx context.Context, data []byte, mimeType, ocrText string) (string, int) {
	prompt := imagePrompt
	if strings.TrimSpace(ocrText) != "" {
		prompt += "\nOCR detected text: " + ocrText
	}
	text, usage, err := d.provider.Complete(ctx, &ai.CompletionRequest{
		Model:       d.visionModel,
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
		Messages: []ai.Message{
			{
				Role:  ai.RoleUser,
				Text:  prompt,
				Image: &ai.ImageData{MIMEType: mimeType, Data: data},
			},
		},
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("image description failed", zap.Error(err))
		return imageFallback + ocrText, 0
	}
	return text, usage.TotalTokens
}
