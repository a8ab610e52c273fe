/*
NAME
  workqueue.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package workqueue provides a fixed pool of workers consuming a FIFO
// of tasks, with a barrier-style Wait that observes every side effect
// of the submitted batch.
//
// Tasks must be independent or perform their own locking. Ordering
// between workers is unspecified; the only guarantee is that Wait
// returns after all pushed tasks have run.
package workqueue

import (
	"runtime"
	"sync"
)

// Queue is a process-lived pool of worker goroutines fed from a FIFO.
// The zero value is not usable; construct with New.
type Queue struct {
	mu       sync.Mutex
	notify   *sync.Cond
	finish   *sync.Cond
	tasks    []func() error
	expected int
	finished int
	err      error
	closed   bool
	wg       sync.WaitGroup
}

// New returns a Queue backed by n workers. If n <= 0 the hardware
// concurrency is used, falling back to 8 when it cannot be determined.
func New(n int) *Queue {
	if n <= 0 {
		n = runtime.NumCPU()
		if n <= 0 {
			n = 8
		}
	}
	q := &Queue{}
	q.notify = sync.NewCond(&q.mu)
	q.finish = sync.NewCond(&q.mu)
	q.wg.Add(n)
	for i := 0; i < n; i++ {
		go q.worker()
	}
	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.notify.Wait()
		}
		if q.closed && len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		f := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		err := f()

		q.mu.Lock()
		if err != nil && q.err == nil {
			q.err = err
		}
		q.finished++
		q.finish.Broadcast()
		q.mu.Unlock()
	}
}

// Push queues a task for execution. It may be called from within a
// running task; workers never block on submission.
func (q *Queue) Push(f func() error) {
	q.mu.Lock()
	q.tasks = append(q.tasks, f)
	q.expected++
	q.mu.Unlock()
	q.notify.Signal()
}

// Wait blocks until every pushed task has finished, then resets the
// batch counters and returns the first error any task produced.
func (q *Queue) Wait() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for !(len(q.tasks) == 0 && q.finished >= q.expected) {
		q.finish.Wait()
	}
	q.finished = 0
	q.expected = 0
	err := q.err
	q.err = nil
	return err
}

// Close stops the workers once the queue drains. Outstanding batches
// must have been waited on; Close does not run a final barrier.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notify.Broadcast()
	q.wg.Wait()
}
