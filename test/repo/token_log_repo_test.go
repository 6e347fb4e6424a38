package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/model"
	"github.com/docuchat/docuchat/internal/pkg/ids"
	"github.com/docuchat/docuchat/internal/repo"
	"github.com/docuchat/docuchat/test/testutil"
)

func TestTokenLogRepoSums(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	logs := repo.NewTokenLogRepo(db)
	ctx := context.Background()
	userID := ids.New()
	now := time.Now().Unix()

	insert := func(op string, used int, ctime int64) {
		require.NoError(t, logs.Insert(ctx, &model.TokenLog{
			ID:             ids.New(),
			UserID:         userID,
			OrganizationID: "org-1",
			TokenType:      model.TokenTypeTextEmbedding,
			OperationType:  op,
			TokensUsed:     used,
			Model:          "text-embedding-3-large",
			Ctime:          ctime,
		}))
	}

	insert(model.OperationTypeDocumentProcessing, 100, now-3600)
	insert(model.OperationTypeDocumentProcessing, 40, now)
	insert(model.OperationTypeChat, 7, now)
	// older than the window, must not count
	insert(model.OperationTypeChat, 999, now-86400)

	total, err := logs.SumSince(ctx, userID, now-7200)
	require.NoError(t, err)
	require.Equal(t, 147, total)

	// the window boundary is inclusive
	total, err = logs.SumSince(ctx, userID, now)
	require.NoError(t, err)
	require.Equal(t, 47, total)

	// an unknown user has zero usage, not an error
	total, err = logs.SumSince(ctx, ids.New(), 0)
	require.NoError(t, err)
	require.Zero(t, total)

	byOp, err := logs.SumSinceByOperation(ctx, userID, now-7200)
	require.NoError(t, err)
	require.Equal(t, 140, byOp[model.OperationTypeDocumentProcessing])
	require.Equal(t, 7, byOp[model.OperationTypeChat])
}
