package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

type geminiProvider struct {
	apiKey string
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) newClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func (p *geminiProvider) buildRequest(req *CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	var contents []*genai.Content
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: msg.Text}}}
			continue
		}
		role := genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		parts := []*genai.Part{{Text: msg.Text}}
		if msg.Image != nil {
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{
				MIMEType: msg.Image.MIMEType,
				Data:     msg.Image.Data,
			}})
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents, config
}

func (p *geminiProvider) Complete(ctx context.Context, req *CompletionRequest) (string, Usage, error) {
	if p.apiKey == "" {
		return "", Usage{}, ErrUnavailable
	}
	client, err := p.newClient(ctx)
	if err != nil {
		return "", Usage{}, err
	}
	contents, config := p.buildRequest(req)
	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return "", Usage{}, err
	}
	return strings.TrimSpace(resp.Text()), geminiUsage(resp.UsageMetadata), nil
}

func (p *geminiProvider) StreamComplete(ctx context.Context, req *CompletionRequest, onDelta func(string)) (string, Usage, error) {
	if p.apiKey == "" {
		return "", Usage{}, ErrUnavailable
	}
	client, err := p.newClient(ctx)
	if err != nil {
		return "", Usage{}, err
	}
	contents, config := p.buildRequest(req)
	var builder strings.Builder
	var usage Usage
	for resp, err := range client.Models.GenerateContentStream(ctx, req.Model, contents, config) {
		if err != nil {
			return builder.String(), usage, err
		}
		delta := resp.Text()
		if delta != "" {
			builder.WriteString(delta)
			if onDelta != nil {
				onDelta(delta)
			}
		}
		if resp.UsageMetadata != nil {
			usage = geminiUsage(resp.UsageMetadata)
		}
	}
	return builder.String(), usage, nil
}

type geminiEmbedProvider struct {
	apiKey string
}

func (p *geminiEmbedProvider) Name() string {
	return "gemini"
}

func (p *geminiEmbedProvider) Embed(ctx context.Context, model string, texts []string) ([][]float32, Usage, error) {
	if p.apiKey == "" {
		return nil, Usage{}, ErrUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, Usage{}, err
	}
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
	}
	resp, err := client.Models.EmbedContent(ctx, model, contents, nil)
	if err != nil {
		return nil, Usage{}, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, Usage{}, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	var usage Usage
	vectors := make([][]float32, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		vectors = append(vectors, emb.Values)
		if emb.Statistics != nil {
			usage.TotalTokens += int(emb.Statistics.TokenCount)
		}
	}
	return vectors, usage, nil
}

func geminiUsage(meta *genai.GenerateContentResponseUsageMetadata) Usage {
	if meta == nil {
		return Usage{}
	}
	return Usage{
		PromptTokens:     int(meta.PromptTokenCount),
		CompletionTokens: int(meta.CandidatesTokenCount),
		TotalTokens:      int(meta.TotalTokenCount),
	}
}

func createGeminiFactory(args interface{}) (IChatProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &geminiProvider{apiKey: strings.TrimSpace(cfg.APIKey)}, nil
}

func createGeminiEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &geminiEmbedProvider{apiKey: strings.TrimSpace(cfg.APIKey)}, nil
}

func init() {
	Register("gemini", createGeminiFactory)
	RegisterEmbed("gemini", createGeminiEmbedFactory)
}
