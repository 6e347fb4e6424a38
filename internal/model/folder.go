package model

type Folder struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	LocationID     string `json:"location_id"`
	ParentFolderID string `json:"parent_folder_id"`
}

type Location struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
}
