package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// ErrAlreadyRunning is returned by Run when the loop is already active
var ErrAlreadyRunning = errors.New("scheduler: loop already running")

// Stats reports loop counters
type Stats struct {
	Frames    uint64
	Callbacks uint64
}

// Loop runs frames on a fixed-rate ticker
// Posted tasks run before the frame callbacks of the next tick, after-frame hooks run last
type Loop struct {
	frames   frameQueue
	tasks    taskQueue
	interval time.Duration
	clock    Clock

	mu    sync.Mutex
	after []func(now time.Time)

	frameCount    atomic.Uint64
	callbackCount atomic.Uint64
	running       atomic.Bool
}

// NewLoop creates a loop ticking at fps frames per second
func NewLoop(fps int, clock Clock) *Loop {
	if fps <= 0 {
		fps = 60
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Loop{
		frames:   newFrameQueue(),
		interval: time.Second / time.Duration(fps),
		clock:    clock,
	}
}

// Interval returns the frame period
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// RequestFrame implements Scheduler
func (l *Loop) RequestFrame(fn FrameFunc) Handle {
	return l.frames.request(fn)
}

// CancelFrame implements Scheduler
func (l *Loop) CancelFrame(h Handle) {
	l.frames.cancel(h)
}

// Pending returns the number of scheduled frame callbacks
func (l *Loop) Pending() int {
	return l.frames.pending()
}

// Post queues fn to run on the loop goroutine before the next frame, safe from any goroutine
func (l *Loop) Post(fn func()) {
	l.tasks.post(fn)
}

// AfterFrame registers a hook run after every frame's callbacks, must be called before Run
func (l *Loop) AfterFrame(fn func(now time.Time)) {
	l.mu.Lock()
	l.after = append(l.after, fn)
	l.mu.Unlock()
}

// Stats returns a snapshot of loop counters
func (l *Loop) Stats() Stats {
	return Stats{
		Frames:    l.frameCount.Load(),
		Callbacks: l.callbackCount.Load(),
	}
}

// Run ticks until ctx is cancelled, returning nil on cancellation
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.frame(l.clock.Now())
		}
	}
}

// frame executes one tick: tasks, frame callbacks, after-frame hooks
func (l *Loop) frame(now time.Time) {
	l.tasks.drain()

	n := l.frames.run(now)
	l.callbackCount.Add(uint64(n))

	l.mu.Lock()
	after := l.after
	l.mu.Unlock()
	for _, fn := range after {
		fn(now)
	}

	l.frameCount.Add(1)
}
