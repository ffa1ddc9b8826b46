package scheduler

import "time"

// Manual is a deterministic scheduler for tests and headless stepping
type Manual struct {
	frames frameQueue
	tasks  taskQueue
	clock  *StepClock
}

// NewManual creates a manual scheduler starting at a fixed epoch with a 16ms frame step
func NewManual() *Manual {
	return &Manual{
		frames: newFrameQueue(),
		clock:  NewStepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 16*time.Millisecond),
	}
}

// RequestFrame implements Scheduler
func (m *Manual) RequestFrame(fn FrameFunc) Handle {
	return m.frames.request(fn)
}

// CancelFrame implements Scheduler
func (m *Manual) CancelFrame(h Handle) {
	m.frames.cancel(h)
}

// Post implements Poster, tasks run at the start of the next Step
func (m *Manual) Post(fn func()) {
	m.tasks.post(fn)
}

// Pending returns the number of scheduled frame callbacks
func (m *Manual) Pending() int {
	return m.frames.pending()
}

// Clock exposes the clock driving frame timestamps
func (m *Manual) Clock() *StepClock {
	return m.clock
}

// SetFrameInterval changes how far each Step moves the clock
func (m *Manual) SetFrameInterval(d time.Duration) {
	m.clock.SetStep(d)
}

// Step runs posted tasks and one frame, returns executed callback count
func (m *Manual) Step() int {
	m.tasks.drain()
	return m.frames.run(m.clock.Tick())
}

// StepN runs n frames, returns total executed callbacks
func (m *Manual) StepN(n int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += m.Step()
	}
	return total
}
