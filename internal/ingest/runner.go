package ingest

import (
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Runner executes ingestion tasks on a bounded goroutine pool. It replaces
// fire-and-forget goroutines so in-flight documents can be drained on
// shutdown and submission failures surface to the caller.
type Runner struct {
	pool *ants.Pool
	wg   sync.WaitGroup
}

func NewRunner(size int) (*Runner, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Runner{pool: pool}, nil
}

// Submit queues a task. It blocks when every worker is busy rather than
// dropping work.
func (r *Runner) Submit(task func()) error {
	r.wg.Add(1)
	err := r.pool.Submit(func() {
		defer r.wg.Done()
		task()
	})
	if err != nil {
		r.wg.Done()
		return err
	}
	return nil
}

// Close waits for queued tasks to finish and releases the pool.
func (r *Runner) Close() {
	r.wg.Wait()
	r.pool.Release()
}
