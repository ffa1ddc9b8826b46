package scheduler

import "time"

// Clock supplies frame timestamps
type Clock interface {
	Now() time.Time
}

// SystemClock provides the real system time with monotonic clock readings
type SystemClock struct{}

// Now returns the current time with monotonic clock reading
func (SystemClock) Now() time.Time {
	return time.Now()
}

// StepClock is a manual time source that moves a fixed interval per Tick, confined to one goroutine
type StepClock struct {
	now  time.Time
	step time.Duration
}

// NewStepClock starts at start and advances by step on every Tick
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{now: start, step: step}
}

// Now returns the last ticked time
func (c *StepClock) Now() time.Time {
	return c.now
}

// Tick advances by the step and returns the new time
func (c *StepClock) Tick() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

// Step returns the per-tick interval
func (c *StepClock) Step() time.Duration {
	return c.step
}

// SetStep changes the interval, non-positive values are ignored
func (c *StepClock) SetStep(d time.Duration) {
	if d > 0 {
		c.step = d
	}
}
