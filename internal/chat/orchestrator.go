package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuchat/docuchat/internal/ai"
	"github.com/docuchat/docuchat/internal/model"
	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
	"github.com/docuchat/docuchat/internal/pkg/ids"
	"github.com/docuchat/docuchat/internal/retrieval"
)

// ChatStore is the slice of the chat repository the orchestrator needs.
type ChatStore interface {
	GetForUser(ctx context.Context, userID, chatID string) (*model.Chat, error)
	Touch(ctx context.Context, chatID string, now int64) error
}

type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	ListRecent(ctx context.Context, chatID string, limit int) ([]model.Message, error)
}

type TokenLogStore interface {
	Insert(ctx context.Context, log *model.TokenLog) error
}

// Retriever finds indexed content relevant to a query. Satisfied by
// retrieval.Engine.
type Retriever interface {
	Search(ctx context.Context, caller model.Caller, query, imageContext string) ([]model.SearchResult, int, error)
}

// ImageAttachment is an inline image sent with a user message.
type ImageAttachment struct {
	MIMEType string
	Data     []byte
}

// Options carries the orchestrator's tunables.
type Options struct {
	ChatModel     string
	VisionModel   string
	EmbedModel    string
	MaxTokens     int
	Temperature   float64
	HistoryWindow int
	MaxImageSize  int64
	SystemPrompt  string
}

// Orchestrator runs one conversation turn: retrieve context, call the model,
// persist both sides with source attribution and account every token spent.
type Orchestrator struct {
	chats     ChatStore
	messages  MessageStore
	tokens    TokenLogStore
	retriever Retriever
	provider  ai.IChatProvider
	opts      Options
	now       func() time.Time
}

func NewOrchestrator(chats ChatStore, messages MessageStore, tokens TokenLogStore, retriever Retriever, provider ai.IChatProvider, opts Options) *Orchestrator {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 50
	}
	if opts.MaxImageSize <= 0 {
		opts.MaxImageSize = 10 * 1024 * 1024
	}
	return &Orchestrator{
		chats:     chats,
		messages:  messages,
		tokens:    tokens,
		retriever: retriever,
		provider:  provider,
		opts:      opts,
		now:       time.Now,
	}
}

// CreateMessage is the non-streaming turn. The user message is persisted
// before generation and never rolled back; a failure after that point leaves
// the turn visible as a user message with no assistant reply.
func (o *Orchestrator) CreateMessage(ctx context.Context, caller model.Caller, chatID, content string, image *ImageAttachment) (*model.Message, error) {
	turn, err := o.prepare(ctx, caller, chatID, content, image)
	if err != nil {
		return nil, err
	}
	text, usage, err := o.provider.Complete(ctx, turn.request)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	return o.finish(ctx, caller, chatID, text, usage, turn)
}

// CreateMessageStream forwards deltas through onDelta as they arrive and
// persists the accumulated reply once the stream completes. Usage is taken
// from the terminal usage-bearing chunk.
func (o *Orchestrator) CreateMessageStream(ctx context.Context, caller model.Caller, chatID, content string, image *ImageAttachment, onDelta func(delta string)) (*model.Message, error) {
	turn, err := o.prepare(ctx, caller, chatID, content, image)
	if err != nil {
		return nil, err
	}
	text, usage, err := o.provider.StreamComplete(ctx, turn.request, onDelta)
	if err != nil {
		return nil, fmt.Errorf("chat stream: %w", err)
	}
	return o.finish(ctx, caller, chatID, text, usage, turn)
}

// turn is the assembled state shared by both entry points.
type turn struct {
	request *ai.CompletionRequest
	sources []model.Source
}

func (o *Orchestrator) prepare(ctx context.Context, caller model.Caller, chatID, content string, image *ImageAttachment) (*turn, error) {
	// the size cap comes first so an oversized upload costs nothing
	if image != nil && int64(len(image.Data)) > o.opts.MaxImageSize {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", appErr.ErrInvalid, o.opts.MaxImageSize)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is required", appErr.ErrInvalid)
	}
	if _, err := o.chats.GetForUser(ctx, caller.ID, chatID); err != nil {
		return nil, err
	}

	history, err := o.messages.ListRecent(ctx, chatID, o.opts.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	// durable before any provider call
	userMsg := &model.Message{
		ID:      ids.New(),
		ChatID:  chatID,
		Role:    model.MessageRoleUser,
		Content: content,
		Ctime:   o.now().Unix(),
	}
	if err := o.messages.Create(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	imageDescription := ""
	if image != nil {
		imageDescription, err = o.describeImage(ctx, caller, chatID, content, image)
		if err != nil {
			return nil, err
		}
	}

	results, embedTokens, err := o.retriever.Search(ctx, caller, content, imageDescription)
	o.logTokens(ctx, caller, chatID, model.TokenTypeTextEmbedding, o.opts.EmbedModel, embedTokens)
	if err != nil {
		return nil, err
	}

	request := &ai.CompletionRequest{
		Model:       o.opts.ChatModel,
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
		Messages:    make([]ai.Message, 0, len(history)+2),
	}
	if image != nil {
		request.Model = o.opts.VisionModel
	}
	request.Messages = append(request.Messages, ai.Message{Role: ai.RoleSystem, Text: o.opts.SystemPrompt})
	for _, msg := range history {
		request.Messages = append(request.Messages, ai.Message{Role: msg.Role, Text: msg.Content})
	}
	final := ai.Message{
		Role: ai.RoleUser,
		Text: buildFinalTurn(retrieval.FormatContext(results), content),
	}
	if image != nil {
		final.Image = &ai.ImageData{MIMEType: image.MIMEType, Data: image.Data}
	}
	request.Messages = append(request.Messages, final)

	return &turn{request: request, sources: retrieval.Sources(results)}, nil
}

func (o *Orchestrator) finish(ctx context.Context, caller model.Caller, chatID, text string, usage ai.Usage, t *turn) (*model.Message, error) {
	assistant := &model.Message{
		ID:      ids.New(),
		ChatID:  chatID,
		Role:    model.MessageRoleAssistant,
		Content: text,
		Sources: t.sources,
		Ctime:   o.now().Unix(),
	}
	if err := o.messages.Create(ctx, assistant); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}
	if err := o.chats.Touch(ctx, chatID, o.now().Unix()); err != nil {
		logutil.GetLogger(ctx).Warn("bump chat mtime failed",
			zap.String("chat_id", chatID), zap.Error(err))
	}
	o.logTokens(ctx, caller, chatID, model.TokenTypeChat, t.request.Model, usage.TotalTokens)
	return assistant, nil
}

// describeImage runs the enrichment vision call. The description is used
// only to sharpen retrieval, it is never stored verbatim.
func (o *Orchestrator) describeImage(ctx context.Context, caller model.Caller, chatID, question string, image *ImageAttachment) (string, error) {
	text, usage, err := o.provider.Complete(ctx, &ai.CompletionRequest{
		Model:       o.opts.VisionModel,
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
		Messages: []ai.Message{
			{
				Role:  ai.RoleUser,
				Text:  question,
				Image: &ai.ImageData{MIMEType: image.MIMEType, Data: image.Data},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("describe attached image: %w", err)
	}
	o.logTokens(ctx, caller, chatID, model.TokenTypeVision, o.opts.VisionModel, usage.TotalTokens)
	return text, nil
}

func (o *Orchestrator) logTokens(ctx context.Context, caller model.Caller, chatID, tokenType, modelName string, used int) {
	if used == 0 {
		return
	}
	err := o.tokens.Insert(ctx, &model.TokenLog{
		ID:             ids.New(),
		UserID:         caller.ID,
		OrganizationID: caller.OrganizationID,
		TokenType:      tokenType,
		OperationType:  model.OperationTypeChat,
		TokensUsed:     used,
		ChatID:         chatID,
		Model:          modelName,
		Ctime:          o.now().Unix(),
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("log token usage failed",
			zap.String("token_type", tokenType), zap.Error(err))
	}
}

func buildFinalTurn(contextBlock, question string) string {
	if strings.TrimSpace(contextBlock) == "" {
		return "Question: " + question
	}
	return "Context:\n" + contextBlock + "\n\nQuestion: " + question
}
