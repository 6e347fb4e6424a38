package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// defaultRunTimeout bounds one job run. Maintenance jobs touch the database
// and the blob store; a hung call must not pin the slot forever.
const defaultRunTimeout = 10 * time.Minute

// Job is a named maintenance task driven on a cron spec.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// CronScheduler runs maintenance jobs on standard 5-field cron specs. Each
// job carries its own overlap guard: a tick that fires while the previous
// run is still going is skipped, not queued.
type CronScheduler struct {
	cron       *cron.Cron
	runTimeout time.Duration
	baseCtx    context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron:       cron.New(cron.WithParser(parser)),
		runTimeout: defaultRunTimeout,
	}
}

func (s *CronScheduler) AddJob(job Job, spec string) error {
	logger := logutil.GetLogger(context.Background()).With(
		zap.String("job", job.Name()), zap.String("spec", spec))
	if _, err := s.cron.AddFunc(spec, s.guarded(job)); err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	logger.Info("job scheduled")
	return nil
}

func (s *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.baseCtx = ctx
	s.cron.Start()
}

// Stop halts the ticker and waits for in-flight runs to drain.
func (s *CronScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *CronScheduler) guarded(job Job) func() {
	var running atomic.Bool
	var skipped atomic.Int64
	return func() {
		base := s.baseCtx
		if base == nil {
			base = context.Background()
		}
		logger := logutil.GetLogger(base).With(zap.String("job", job.Name()))
		if !running.CompareAndSwap(false, true) {
			logger.Warn("tick skipped, previous run still going",
				zap.Int64("skipped_total", skipped.Add(1)))
			return
		}
		defer running.Store(false)

		ctx, cancel := context.WithTimeout(base, s.runTimeout)
		defer cancel()

		start := time.Now()
		err := job.Run(ctx)
		if err != nil {
			logger.Error("job run failed",
				zap.Duration("duration", time.Since(start)), zap.Error(err))
			return
		}
		logger.Info("job run done", zap.Duration("duration", time.Since(start)))
	}
}
