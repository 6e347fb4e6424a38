package model

const (
	ContentTypeText  = "text"
	ContentTypeTable = "table"
	ContentTypeImage = "image"
)

// TextEmbedding is one page worth of extracted text with its vector.
type TextEmbedding struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	LocationID string    `json:"location_id"`
	PageNumber int       `json:"page_number"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding"`
	Ctime      int64     `json:"ctime"`
}

// TableEmbedding is one extracted table: the raw rows, an HTML rendering and
// the generated description whose vector is stored.
type TableEmbedding struct {
	ID          string     `json:"id"`
	DocumentID  string     `json:"document_id"`
	LocationID  string     `json:"location_id"`
	PageNumber  int        `json:"page_number"`
	TableNumber int        `json:"table_number"`
	Rows        [][]string `json:"rows"`
	HTMLContent string     `json:"html_content"`
	Description string     `json:"description"`
	Embedding   []float32  `json:"embedding"`
	Ctime       int64      `json:"ctime"`
}

// ImageEmbedding is one extracted image: its blob-store path and the generated
// description whose vector is stored.
type ImageEmbedding struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	LocationID  string    `json:"location_id"`
	PageNumber  int       `json:"page_number"`
	ImageNumber int       `json:"image_number"`
	StoragePath string    `json:"storage_path"`
	Description string    `json:"description"`
	Embedding   []float32 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}

// SearchResult is one row of the unified similarity search across the three
// content tables.
type SearchResult struct {
	ContentType string         `json:"content_type"`
	Content     string         `json:"content"`
	Similarity  float64        `json:"similarity"`
	Info        AdditionalInfo `json:"additional_info"`
}

// AdditionalInfo carries the content-type dependent provenance of a search
// result. TableNumber/ImageNumber/HTMLContent are set only for their type.
type AdditionalInfo struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	FilePath     string `json:"file_path"`
	PageNumber   int    `json:"page_number"`
	TableNumber  int    `json:"table_number,omitempty"`
	ImageNumber  int    `json:"image_number,omitempty"`
	HTMLContent  string `json:"html_content,omitempty"`
}
