package utils

import (
	"sync"

	"github.com/rs/zerolog"
)

// Job represents a task to be executed by a worker.
type Job struct {
	Task func()
}

// WorkerPool manages a pool of workers to execute jobs. A pool with a single
// worker runs jobs one at a time in submission order and serves as the dispatch
// context for listener callbacks.
type WorkerPool struct {
	workers   int
	jobQueue  chan Job
	waitGroup sync.WaitGroup
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a new WorkerPool with the specified number of workers.
func NewWorkerPool(workers int, logger zerolog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	pool := &WorkerPool{
		workers:  workers,
		jobQueue: make(chan Job, 64),
		logger:   logger,
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

// worker processes jobs from the jobQueue.
func (wp *WorkerPool) worker() {
	defer wp.waitGroup.Done()
	for job := range wp.jobQueue {
		wp.run(job)
	}
}

// run executes one job; a panicking job is logged and does not kill the worker.
func (wp *WorkerPool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error().Interface("panic", r).Msg("Job panicked")
		}
	}()
	job.Task()
}

// Submit adds a new job to the worker pool. It returns false once the pool is shut down.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		wp.logger.Debug().Msg("Dropping job submitted after shutdown")
		return false
	}
	wp.jobQueue <- Job{Task: task}
	return true
}

// Shutdown waits for all queued jobs to finish and then closes the worker pool.
// It is safe to call more than once.
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.jobQueue)
	wp.mu.Unlock()
	wp.waitGroup.Wait()
}
