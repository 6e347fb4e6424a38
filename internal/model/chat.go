package model

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

type Chat struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Ctime  int64  `json:"ctime"`
	Mtime  int64  `json:"mtime"`
}

type Message struct {
	ID      string   `json:"id"`
	ChatID  string   `json:"chat_id"`
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
	Ctime   int64    `json:"ctime"`
}

// Source links an assistant message back to one retrieved content item.
type Source struct {
	DocumentID      string  `json:"document_id"`
	PageNumber      int     `json:"page_number"`
	Content         string  `json:"content"`
	ContentType     string  `json:"content_type"`
	SimilarityScore float64 `json:"similarity_score"`
	DocumentName    string  `json:"document_name"`
	FilePath        string  `json:"file_path"`
}
