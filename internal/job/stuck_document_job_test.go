package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/model"
)

type fakeStuckStore struct {
	lastCutoff int64
	docs       []model.Document
	failFor    string
	marked     []string
	listErr    error
}

func (s *fakeStuckStore) ListStuckProcessing(ctx context.Context, cutoff int64) ([]model.Document, error) {
	s.lastCutoff = cutoff
	return s.docs, s.listErr
}

func (s *fakeStuckStore) MarkError(ctx context.Context, docID string, now int64) error {
	if docID == s.failFor {
		return errors.New("update failed")
	}
	s.marked = append(s.marked, docID)
	return nil
}

func TestStuckDocumentSweep(t *testing.T) {
	store := &fakeStuckStore{docs: []model.Document{
		{ID: "doc-1", Mtime: 100},
		{ID: "doc-2", Mtime: 200},
	}}
	job := NewStuckDocumentJob(store, 30*time.Minute)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return at }

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, at.Add(-30*time.Minute).Unix(), store.lastCutoff)
	require.Equal(t, []string{"doc-1", "doc-2"}, store.marked)
}

func TestStuckDocumentSweepContinuesPastFailure(t *testing.T) {
	store := &fakeStuckStore{
		docs:    []model.Document{{ID: "doc-1"}, {ID: "doc-2"}},
		failFor: "doc-1",
	}
	job := NewStuckDocumentJob(store, time.Minute)

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, []string{"doc-2"}, store.marked)
}

func TestStuckDocumentSweepListFailure(t *testing.T) {
	store := &fakeStuckStore{listErr: errors.New("db down")}
	job := NewStuckDocumentJob(store, time.Minute)
	require.Error(t, job.Run(context.Background()))
}

func TestStuckDocumentJobDefaultAge(t *testing.T) {
	job := NewStuckDocumentJob(&fakeStuckStore{}, 0)
	require.Equal(t, 30*time.Minute, job.maxAge)
}
