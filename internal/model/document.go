package model

const (
	DocumentStatusAdded      = "added"
	DocumentStatusProcessing = "processing"
	DocumentStatusProcessed  = "processed"
	DocumentStatusError      = "error"
)

type Document struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FolderID  string `json:"folder_id"`
	FilePath  string `json:"file_path"`
	FileType  string `json:"file_type"`
	PageCount int    `json:"page_count"`
	Status    string `json:"status"`
	CreatedBy string `json:"created_by"`
	Ctime     int64  `json:"ctime"`
	Mtime     int64  `json:"mtime"`
}
