package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuchat/docuchat/internal/model"
)

// StuckDocumentStore is the slice of the document repository the sweep needs.
type StuckDocumentStore interface {
	ListStuckProcessing(ctx context.Context, cutoff int64) ([]model.Document, error)
	MarkError(ctx context.Context, docID string, now int64) error
}

// StuckDocumentJob sweeps documents abandoned mid-processing by a crashed or
// restarted instance. Anything still in processing past maxAge cannot finish
// anymore, its signed staging URL has long expired, so it is moved to error
// where a reprocessing request can pick it up again.
type StuckDocumentJob struct {
	docs   StuckDocumentStore
	maxAge time.Duration
	now    func() time.Time
}

func NewStuckDocumentJob(docs StuckDocumentStore, maxAge time.Duration) *StuckDocumentJob {
	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}
	return &StuckDocumentJob{docs: docs, maxAge: maxAge, now: time.Now}
}

func (j *StuckDocumentJob) Name() string {
	return "stuck_document_sweep"
}

func (j *StuckDocumentJob) Run(ctx context.Context) error {
	now := j.now()
	cutoff := now.Add(-j.maxAge).Unix()
	docs, err := j.docs.ListStuckProcessing(ctx, cutoff)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, doc := range docs {
		if err := j.docs.MarkError(ctx, doc.ID, now.Unix()); err != nil {
			logger.Error("mark stuck document failed",
				zap.String("document_id", doc.ID), zap.Error(err))
			continue
		}
		logger.Info("stuck document moved to error",
			zap.String("document_id", doc.ID), zap.Int64("mtime", doc.Mtime))
	}
	return nil
}
