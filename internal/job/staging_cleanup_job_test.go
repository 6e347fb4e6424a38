package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/blobstore"
)

type fakeStagingStore struct {
	blobstore.Store

	lastPrefix string
	objects    []blobstore.Object
	failFor    string
	deleted    []string
}

func (s *fakeStagingStore) List(ctx context.Context, prefix string) ([]blobstore.Object, error) {
	s.lastPrefix = prefix
	return s.objects, nil
}

func (s *fakeStagingStore) Delete(ctx context.Context, key string) error {
	if key == s.failFor {
		return errors.New("delete failed")
	}
	s.deleted = append(s.deleted, key)
	return nil
}

func TestStagingCleanupRemovesOldObjects(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStagingStore{objects: []blobstore.Object{
		{Key: "staging/run-1/old.pdf", ModTime: at.Add(-time.Hour)},
		{Key: "staging/run-2/fresh.pdf", ModTime: at.Add(-time.Minute)},
		{Key: "staging/run-3/boundary.pdf", ModTime: at.Add(-15 * time.Minute)},
	}}
	job := NewStagingCleanupJob(store, 15*time.Minute)
	job.now = func() time.Time { return at }

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, "staging/", store.lastPrefix)
	// exactly at the cutoff counts as expired
	require.Equal(t, []string{"staging/run-1/old.pdf", "staging/run-3/boundary.pdf"}, store.deleted)
}

func TestStagingCleanupContinuesPastFailure(t *testing.T) {
	at := time.Now()
	store := &fakeStagingStore{
		objects: []blobstore.Object{
			{Key: "staging/a", ModTime: at.Add(-time.Hour)},
			{Key: "staging/b", ModTime: at.Add(-time.Hour)},
		},
		failFor: "staging/a",
	}
	job := NewStagingCleanupJob(store, 15*time.Minute)
	job.now = func() time.Time { return at }

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, []string{"staging/b"}, store.deleted)
}
