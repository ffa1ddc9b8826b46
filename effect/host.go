// Package effect implements the animated backdrops: a drifting particle field, digital rain and
// a pulsing node graph. Each engine mounts into a canvas.Surface, owns its state and frame loop,
// and shares nothing with other engines.
//
// Engines are driven by a scheduler.Scheduler and are not safe for concurrent use: call their
// methods from the scheduler goroutine (scheduler.Loop.Post from elsewhere).
package effect

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/backdrop/hub"
	"github.com/lixenwraith/backdrop/scheduler"
)

// Configuration errors returned by constructors
var (
	ErrNoContainer = errors.New("effect: container is required")
	ErrNoScheduler = errors.New("effect: scheduler is required")
	ErrBadOption   = errors.New("effect: invalid option")
)

// Host bundles the runtime capabilities an engine consumes
type Host struct {
	// Scheduler issues frame callbacks, required
	Scheduler scheduler.Scheduler
	// Events delivers pointer and resize events, nil disables both
	Events *hub.Hub
	// Rand drives placement and glyph choice, nil seeds from the clock
	Rand *rand.Rand
	// Log receives loop diagnostics, nil discards
	Log *zerolog.Logger
}

func (h Host) validate() error {
	if h.Scheduler == nil {
		return ErrNoScheduler
	}
	return nil
}

func (h Host) rng() *rand.Rand {
	if h.Rand != nil {
		return h.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (h Host) logger(effect string) zerolog.Logger {
	if h.Log == nil {
		return zerolog.Nop()
	}
	return h.Log.With().Str("effect", effect).Logger()
}

// subscribe registers a handler when the host has an event hub
func (h Host) subscribe(k hub.Kind, fn hub.Handler) *hub.Subscription {
	if h.Events == nil {
		return nil
	}
	return h.Events.Subscribe(k, fn)
}

func wrapOption(err error, field string) error {
	return errors.Wrapf(ErrBadOption, "%s: %v", field, err)
}
