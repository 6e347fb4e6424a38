package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuchat/docuchat/internal/blobstore"
)

// StagingCleanupJob removes staging objects left behind by ingestion runs
// that died before their cleanup deferred. Objects younger than maxAge may
// belong to an in-flight run and are left alone.
type StagingCleanupJob struct {
	staging blobstore.Store
	maxAge  time.Duration
	now     func() time.Time
}

func NewStagingCleanupJob(staging blobstore.Store, maxAge time.Duration) *StagingCleanupJob {
	if maxAge <= 0 {
		maxAge = 15 * time.Minute
	}
	return &StagingCleanupJob{staging: staging, maxAge: maxAge, now: time.Now}
}

func (j *StagingCleanupJob) Name() string {
	return "staging_cleanup"
}

func (j *StagingCleanupJob) Run(ctx context.Context) error {
	objects, err := j.staging.List(ctx, "staging/")
	if err != nil {
		return err
	}
	cutoff := j.now().Add(-j.maxAge)
	logger := logutil.GetLogger(ctx)
	removed := 0
	for _, obj := range objects {
		if obj.ModTime.After(cutoff) {
			continue
		}
		if err := j.staging.Delete(ctx, obj.Key); err != nil {
			logger.Error("delete staging object failed",
				zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("staging objects cleaned", zap.Int("removed", removed))
	}
	return nil
}
