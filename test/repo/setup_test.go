package repo_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/model"
	"github.com/docuchat/docuchat/internal/pkg/ids"
	"github.com/docuchat/docuchat/internal/repo"
)

// seedFolder creates a location and a folder inside it so documents can
// satisfy their foreign keys. IDs are fresh per call, tests can run against
// a shared database without colliding.
func seedFolder(t *testing.T, db *sql.DB, orgID string) *model.Folder {
	t.Helper()
	loc := &model.Location{ID: ids.New(), OrganizationID: orgID, Name: "hq"}
	require.NoError(t, repo.NewLocationRepo(db).Create(context.Background(), loc))
	folder := &model.Folder{ID: ids.New(), Name: "reports", LocationID: loc.ID}
	require.NoError(t, repo.NewFolderRepo(db).Create(context.Background(), folder))
	return folder
}

func seedDocument(t *testing.T, db *sql.DB, folderID, status string) *model.Document {
	t.Helper()
	now := time.Now().Unix()
	doc := &model.Document{
		ID:        ids.New(),
		Name:      "report.pdf",
		FolderID:  folderID,
		FilePath:  "documents/" + ids.New() + "/report.pdf",
		FileType:  "pdf",
		Status:    status,
		CreatedBy: "user-1",
		Ctime:     now,
		Mtime:     now,
	}
	require.NoError(t, repo.NewDocumentRepo(db).Create(context.Background(), doc))
	return doc
}
