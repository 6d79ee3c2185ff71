package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Dispatcher runs best-effort side effects in the background. Failures are
// logged and dropped: there is no retry and no reconciliation.
type Dispatcher struct {
	log     logrus.FieldLogger
	sem     *semaphore.Weighted
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(log logrus.FieldLogger, workers int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Dispatcher{
		log:     log.WithField("module", "dispatcher"),
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
	}
}

// Go schedules fn and returns immediately. fn gets its own deadline, detached
// from the request that triggered it.
func (d *Dispatcher) Go(name string, fields logrus.Fields, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		entry := d.log.WithField("task", name).WithFields(fields)
		if err := d.sem.Acquire(ctx, 1); err != nil {
			entry.WithError(err).Warn("Side effect dropped: no worker available before deadline")
			return
		}
		defer d.sem.Release(1)

		start := time.Now()
		if err := fn(ctx); err != nil {
			entry.WithError(err).Error("Side effect failed")
			return
		}
		entry.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Side effect done")
	}()
}

// Wait blocks until every scheduled side effect finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
