// Package workerpool runs background jobs, such as preview encoding, off the
// render thread. Submit never blocks: when the queue is full the job is
// rejected so the caller can drop the frame instead of stalling.
package workerpool

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/breeze-rmm/monitorcapture/internal/logging"
)

var log = logging.L("workerpool")

// Task is a unit of work submitted to the pool.
type Task func()

// Pool is a bounded goroutine pool with a fixed-size task queue.
type Pool struct {
	name       string
	maxWorkers int
	queue      chan Task
	wg         sync.WaitGroup
	accepting  atomic.Bool
	closeOnce  sync.Once

	completed atomic.Uint64
	rejected  atomic.Uint64
}

// New creates a pool named name with maxWorkers goroutines and a task queue
// of queueSize.
func New(name string, maxWorkers, queueSize int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	p := &Pool{
		name:       name,
		maxWorkers: maxWorkers,
		queue:      make(chan Task, queueSize),
	}
	p.accepting.Store(true)

	for i := 0; i < maxWorkers; i++ {
		go p.worker()
	}

	log.Debug("worker pool started", "pool", name, "workers", maxWorkers, "queueSize", queueSize)
	return p
}

// Submit enqueues a task. It returns false if the pool is stopped or the
// queue is full.
func (p *Pool) Submit(task Task) bool {
	if !p.accepting.Load() {
		return false
	}

	// Add before enqueueing so Drain cannot miss the task.
	p.wg.Add(1)
	select {
	case p.queue <- task:
		return true
	default:
		p.wg.Done()
		p.rejected.Add(1)
		return false
	}
}

// Stats returns the number of tasks completed and rejected.
func (p *Pool) Stats() (completed, rejected uint64) {
	return p.completed.Load(), p.rejected.Load()
}

// StopAccepting prevents new tasks from being submitted.
func (p *Pool) StopAccepting() {
	p.accepting.Store(false)
}

// Drain stops accepting tasks and waits for queued and in-flight ones until
// ctx is done. Workers exit once the queue is empty.
func (p *Pool) Drain(ctx context.Context) {
	p.StopAccepting()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		completed, rejected := p.Stats()
		log.Debug("worker pool drained", "pool", p.name, "completed", completed, "rejected", rejected)
	case <-ctx.Done():
		log.Warn("worker pool drain timed out", "pool", p.name)
	}

	p.closeOnce.Do(func() {
		close(p.queue)
	})
}

func (p *Pool) worker() {
	for task := range p.queue {
		p.runTask(task)
	}
}

// runTask executes a single task with panic recovery.
func (p *Pool) runTask(task Task) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", "pool", p.name, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
	p.completed.Add(1)
}
