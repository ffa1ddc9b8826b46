package effect

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/backdrop/core"
	"github.com/lixenwraith/backdrop/scheduler"
)

// frameLoop re-requests a frame after every successful step
// A failing or panicking step stops the loop without touching the scheduler again
type frameLoop struct {
	sched  scheduler.Scheduler
	step   func() error
	log    zerolog.Logger
	handle scheduler.Handle
	frames uint64

	running bool
	err     error
}

func newFrameLoop(sched scheduler.Scheduler, step func() error, log zerolog.Logger) frameLoop {
	return frameLoop{sched: sched, step: step, log: log}
}

func (l *frameLoop) start() {
	if l.running {
		return
	}
	l.running = true
	l.handle = l.sched.RequestFrame(l.tick)
}

func (l *frameLoop) tick(time.Time) {
	l.handle = 0
	if !l.running {
		return
	}

	if err := core.Recover(l.step); err != nil {
		l.running = false
		l.err = err
		l.log.Warn().Err(err).Uint64("frames", l.frames).Msg("frame loop stopped")
		return
	}
	l.frames++
	l.handle = l.sched.RequestFrame(l.tick)
}

// stop cancels the pending frame, idempotent
func (l *frameLoop) stop() {
	l.running = false
	if l.handle != 0 {
		l.sched.CancelFrame(l.handle)
		l.handle = 0
	}
}

// bounce integrates one axis and reflects at [0, bound]
// The velocity flips when the new position leaves the range, then the position is clamped
func bounce(pos, vel, bound float64) (float64, float64) {
	pos += vel
	if pos < 0 || pos > bound {
		vel = -vel
	}
	return clampRange(pos, 0, bound), vel
}

func clampRange(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
