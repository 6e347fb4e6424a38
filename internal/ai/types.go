package ai

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Usage is the provider-reported token cost of one call. It is never
// estimated locally; a zero value means the provider reported nothing.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// Message is one conversation turn. Image, when set, is sent inline to a
// vision-capable model alongside Text.
type Message struct {
	Role  string
	Text  string
	Image *ImageData
}

type ImageData struct {
	MIMEType string
	Data     []byte
}

// CompletionRequest describes one chat-completion call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}
