// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ingest provides the task queues that bridge frame producers to
// the render goroutine.
//
// A Queue is a single-producer/single-consumer bridge with
// drop-on-backpressure semantics: at most one task is pending at a time,
// and a producer that finds the slot occupied drops its task instead of
// waiting. The render goroutine drains the queue once per draw tick.
package ingest

import "sync"

// Task is a unit of work handed from a producer goroutine to the render
// goroutine. Tasks run on the render goroutine during Drain and are the
// only place producer data may touch GPU state.
type Task func()

// Queue is a mutex-guarded task queue with at-most-one-pending
// backpressure. The zero value is ready to use.
//
// TryEnqueue is safe to call from any goroutine. Drain must only be
// called from the consumer (render) goroutine.
type Queue struct {
	mu      sync.Mutex
	pending []Task
}

// TryEnqueue adds task to the queue if it is empty and reports whether
// the task was accepted. A non-empty queue drops the task: a fresher one
// is already on the way, so queueing stale work would only add latency.
func (q *Queue) TryEnqueue(task Task) bool {
	if task == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) > 0 {
		return false
	}
	q.pending = append(q.pending, task)
	return true
}

// Drain removes every queued task and runs them in FIFO order. It is a
// no-op when the queue is empty.
//
// The pending tasks are detached under the lock and executed after it is
// released, so producers calling TryEnqueue never block behind a slow
// task (texture uploads can take longer than a camera frame interval).
// They observe the detached slot as empty and their next frame is
// accepted.
func (q *Queue) Drain() {
	q.mu.Lock()
	tasks := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, task := range tasks {
		task()
	}
}

// Len returns the number of pending tasks. It exists for tests and
// diagnostics; the result is stale the moment it is returned.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
