package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/model"
	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
	"github.com/docuchat/docuchat/internal/pkg/ids"
	"github.com/docuchat/docuchat/internal/repo"
	"github.com/docuchat/docuchat/test/testutil"
)

func TestDocumentRepoStatusLifecycle(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	folder := seedFolder(t, db, "org-1")
	doc := seedDocument(t, db, folder.ID, model.DocumentStatusAdded)
	docs := repo.NewDocumentRepo(db)
	ctx := context.Background()

	fetched, err := docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusAdded, fetched.Status)

	now := time.Now().Unix()
	require.NoError(t, docs.MarkProcessing(ctx, doc.ID, now))

	// the conditional update is the concurrency guard, a second claim loses
	err = docs.MarkProcessing(ctx, doc.ID, now)
	require.ErrorIs(t, err, appErr.ErrConflict)

	require.NoError(t, docs.MarkProcessed(ctx, doc.ID, 12, now+1))
	fetched, err = docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusProcessed, fetched.Status)
	require.Equal(t, 12, fetched.PageCount)
	require.Equal(t, now+1, fetched.Mtime)

	// processed documents cannot be claimed either
	err = docs.MarkProcessing(ctx, doc.ID, now+2)
	require.ErrorIs(t, err, appErr.ErrConflict)

	require.NoError(t, docs.MarkError(ctx, doc.ID, now+3))
	fetched, err = docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusError, fetched.Status)
}

func TestDocumentRepoNotFound(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(db)
	_, err := docs.GetByID(context.Background(), ids.New())
	require.ErrorIs(t, err, appErr.ErrNotFound)

	err = docs.MarkError(context.Background(), ids.New(), time.Now().Unix())
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDocumentRepoListStuckProcessing(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	folder := seedFolder(t, db, "org-1")
	docs := repo.NewDocumentRepo(db)
	ctx := context.Background()
	now := time.Now().Unix()

	stale := seedDocument(t, db, folder.ID, model.DocumentStatusAdded)
	require.NoError(t, docs.MarkProcessing(ctx, stale.ID, now-3600))
	fresh := seedDocument(t, db, folder.ID, model.DocumentStatusAdded)
	require.NoError(t, docs.MarkProcessing(ctx, fresh.ID, now))
	idle := seedDocument(t, db, folder.ID, model.DocumentStatusAdded)

	stuck, err := docs.ListStuckProcessing(ctx, now-1800)
	require.NoError(t, err)

	found := map[string]bool{}
	for _, d := range stuck {
		found[d.ID] = true
	}
	require.True(t, found[stale.ID])
	require.False(t, found[fresh.ID])
	require.False(t, found[idle.ID])
}

func TestDocumentRepoDeleteCascades(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	folder := seedFolder(t, db, "org-1")
	doc := seedDocument(t, db, folder.ID, model.DocumentStatusProcessed)
	ctx := context.Background()

	embeddings := repo.NewEmbeddingRepo(db)
	require.NoError(t, embeddings.Insert(ctx, &model.TextEmbedding{
		ID:         ids.New(),
		DocumentID: doc.ID,
		LocationID: folder.LocationID,
		PageNumber: 1,
		Content:    "page text",
		Embedding:  make([]float32, 3072),
		Ctime:      time.Now().Unix(),
	}))

	require.NoError(t, repo.NewDocumentRepo(db).Delete(ctx, doc.ID))

	count, err := embeddings.CountByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}
