package model

const (
	TokenTypeChat           = "chat"
	TokenTypeTextEmbedding  = "text_embedding"
	TokenTypeTableEmbedding = "table_embedding"
	TokenTypeImageEmbedding = "image_embedding"
	TokenTypeVision         = "vision"
)

const (
	OperationTypeChat               = "chat"
	OperationTypeDocumentProcessing = "document_processing"
)

// TokenLog is an append-only usage record. Rows are never updated or deleted.
type TokenLog struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	TokenType      string `json:"token_type"`
	OperationType  string `json:"operation_type"`
	TokensUsed     int    `json:"tokens_used"`
	DocumentID     string `json:"document_id,omitempty"`
	ChatID         string `json:"chat_id,omitempty"`
	Model          string `json:"model"`
	Ctime          int64  `json:"ctime"`
}
