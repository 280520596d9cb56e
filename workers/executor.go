package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrExecutorStopped is returned for work submitted to, or still queued in, a
// stopped executor.
var ErrExecutorStopped = errors.New("database executor stopped")

type job struct {
	ctx   context.Context
	run   func(ctx context.Context)
	abort func(err error)
}

// DatabaseExecutor runs blocking store operations on a fixed set of worker
// goroutines, away from the goroutine serving the request.
type DatabaseExecutor struct {
	jobQueue chan job
	timeout  time.Duration
	log      *zap.SugaredLogger

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
	stopped  bool
}

func NewDatabaseExecutor(queueSize, numWorkers int, timeout time.Duration, log *zap.SugaredLogger) *DatabaseExecutor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	e := &DatabaseExecutor{
		jobQueue: make(chan job, queueSize),
		timeout:  timeout,
		log:      log,
		stopChan: make(chan struct{}),
	}

	e.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go e.worker(i)
	}
	log.Infof("started %d database worker(s) with queue size %d", numWorkers, queueSize)

	return e
}

func (e *DatabaseExecutor) worker(id int) {
	defer e.wg.Done()
	for {
		select {
		case j := <-e.jobQueue:
			e.runJob(id, j)
		case <-e.stopChan:
			e.log.Debugf("database worker %d stopping: stop signal received", id)
			return
		}
	}
}

func (e *DatabaseExecutor) runJob(workerID int, j job) {
	if err := j.ctx.Err(); err != nil {
		j.abort(err)
		return
	}

	ctx := j.ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("database job panicked", "worker", workerID, "panic", r)
			j.abort(fmt.Errorf("database job panicked: %v", r))
		}
	}()
	j.run(ctx)
}

func (e *DatabaseExecutor) enqueue(ctx context.Context, j job) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.stopped {
		j.abort(ErrExecutorStopped)
		return
	}

	select {
	case e.jobQueue <- j:
	case <-ctx.Done():
		j.abort(ctx.Err())
	case <-e.stopChan:
		j.abort(ErrExecutorStopped)
	}
}

// Stop halts the workers and fails every job still waiting in the queue.
func (e *DatabaseExecutor) Stop() {
	e.stopOnce.Do(func() {
		e.log.Info("stopping database executor...")
		close(e.stopChan)

		e.mu.Lock()
		e.stopped = true
		e.mu.Unlock()

		e.wg.Wait()
		for {
			select {
			case j := <-e.jobQueue:
				j.abort(ErrExecutorStopped)
			default:
				e.log.Info("all database workers stopped")
				return
			}
		}
	})
}

// Submit schedules fn on the executor and returns a Future for its result.
// It blocks while the queue is full, until ctx is done.
func Submit[T any](ctx context.Context, e *DatabaseExecutor, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	e.enqueue(ctx, job{
		ctx: ctx,
		run: func(ctx context.Context) {
			v, err := fn(ctx)
			f.complete(v, err)
		},
		abort: func(err error) {
			var zero T
			f.complete(zero, err)
		},
	})
	return f
}
