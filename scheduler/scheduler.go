// Package scheduler provides the render tick: frame callbacks requested by effects and run
// once per frame on a single goroutine until cancelled.
//
// Callbacks requested while a frame is executing run on the following frame, matching the
// semantics of a display-refresh callback. Everything scheduled through one Scheduler runs on
// the same goroutine, so effects never need locks around their own state.
package scheduler

import (
	"sync"
	"time"
)

// FrameFunc is invoked once for the frame it was requested for
type FrameFunc func(now time.Time)

// Handle identifies a requested frame callback, zero is never issued
type Handle uint64

// Scheduler issues frame callbacks
type Scheduler interface {
	// RequestFrame schedules fn for the next frame and returns its handle
	RequestFrame(fn FrameFunc) Handle

	// CancelFrame drops a pending callback, unknown or spent handles are ignored
	CancelFrame(h Handle)
}

// Poster runs a task on the scheduler goroutine before the next frame
type Poster interface {
	Post(fn func())
}

// frameQueue holds pending callbacks in request order
type frameQueue struct {
	mu    sync.Mutex
	next  Handle
	live  map[Handle]FrameFunc
	order []Handle
}

func newFrameQueue() frameQueue {
	return frameQueue{live: make(map[Handle]FrameFunc)}
}

func (q *frameQueue) request(fn FrameFunc) Handle {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.next++
	h := q.next
	q.live[h] = fn
	q.order = append(q.order, h)
	return h
}

func (q *frameQueue) cancel(h Handle) {
	q.mu.Lock()
	delete(q.live, h)
	q.mu.Unlock()
}

func (q *frameQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.live)
}

// run executes the batch requested before this call, returns executed count
// A callback cancelled by an earlier callback of the same batch is skipped
func (q *frameQueue) run(now time.Time) int {
	q.mu.Lock()
	batch := q.order
	q.order = nil
	q.mu.Unlock()

	executed := 0
	for _, h := range batch {
		q.mu.Lock()
		fn, ok := q.live[h]
		delete(q.live, h)
		q.mu.Unlock()

		if !ok {
			continue
		}
		fn(now)
		executed++
	}
	return executed
}

// taskQueue holds posted tasks
type taskQueue struct {
	mu    sync.Mutex
	tasks []func()
}

func (t *taskQueue) post(fn func()) {
	t.mu.Lock()
	t.tasks = append(t.tasks, fn)
	t.mu.Unlock()
}

// drain runs queued tasks until the queue is empty, including tasks posted by tasks
func (t *taskQueue) drain() {
	for {
		t.mu.Lock()
		tasks := t.tasks
		t.tasks = nil
		t.mu.Unlock()

		if len(tasks) == 0 {
			return
		}
		for _, fn := range tasks {
			fn()
		}
	}
}
