package pipeline

import (
	"runtime"
	"sync"
)

// WorkerPool bounds the number of analyses running at once. The pipeline
// itself is stateless, so the pool exists purely to cap CPU fan-out at the
// request layer.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	start    sync.Once
	stop     sync.Once
}

// NewWorkerPool creates a pool with the given worker count; zero or negative
// means one worker per CPU.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start launches the workers. Safe to call more than once.
func (wp *WorkerPool) Start() {
	wp.start.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		job()
	}
}

// Do runs job on a pool worker and blocks until it completes.
func (wp *WorkerPool) Do(job func()) {
	done := make(chan struct{})
	wp.jobQueue <- func() {
		defer close(done)
		job()
	}
	<-done
}

// Close shuts the pool down. No jobs may be submitted afterwards.
func (wp *WorkerPool) Close() {
	wp.stop.Do(func() {
		close(wp.jobQueue)
	})
}
