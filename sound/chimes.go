// Package sound plays short sine cues for backdrop events through the beep speaker.
package sound

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const sampleRate = beep.SampleRate(44100)

// Cue identifies an event sound
type Cue int

const (
	CueAdd Cue = iota
	CueRemove
	CueScene
)

func (c Cue) String() string {
	switch c {
	case CueAdd:
		return "add"
	case CueRemove:
		return "remove"
	case CueScene:
		return "scene"
	}
	return "unknown"
}

type tone struct {
	freq float64
	dur  time.Duration
}

var cueTones = map[Cue][]tone{
	CueAdd:    {{freq: 880, dur: 50 * time.Millisecond}},
	CueRemove: {{freq: 440, dur: 50 * time.Millisecond}},
	CueScene:  {{freq: 660, dur: 60 * time.Millisecond}, {freq: 990, dur: 90 * time.Millisecond}},
}

// releaseFraction of each tone fades linearly to silence to avoid clicks
const releaseFraction = 0.3

// Sink receives finished cue streamers
type Sink interface {
	Play(s ...beep.Streamer)
}

// speakerSink feeds a mixer already playing on the speaker
type speakerSink struct {
	mixer *beep.Mixer
}

func (s speakerSink) Play(streams ...beep.Streamer) {
	speaker.Lock()
	s.mixer.Add(streams...)
	speaker.Unlock()
}

// Chimes turns cues into audio; a nil or uninitialized Chimes is silent
type Chimes struct {
	mu     sync.Mutex
	sink   Sink
	volume float64
	log    zerolog.Logger

	speaker bool
}

// New returns silent chimes, call Init to open the speaker
func New(volume float64, log zerolog.Logger) *Chimes {
	return &Chimes{volume: volume, log: log}
}

// NewWithSink returns chimes that hand cues to sink instead of the speaker
func NewWithSink(sink Sink, volume float64) *Chimes {
	return &Chimes{sink: sink, volume: volume, log: zerolog.Nop()}
}

// Init opens the speaker and starts the mixer, idempotent
func (c *Chimes) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sink != nil {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return errors.Wrap(err, "init speaker")
	}
	mixer := &beep.Mixer{}
	speaker.Play(mixer)
	c.sink = speakerSink{mixer: mixer}
	c.speaker = true
	c.log.Debug().Int("rate", int(sampleRate)).Msg("speaker ready")
	return nil
}

// Enabled reports whether cues reach a sink
func (c *Chimes) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sink != nil
}

// Play queues the cue without blocking
func (c *Chimes) Play(cue Cue) {
	if c == nil {
		return
	}
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()
	if sink == nil {
		return
	}

	s, err := c.Streamer(cue)
	if err != nil {
		c.log.Warn().Err(err).Stringer("cue", cue).Msg("cue dropped")
		return
	}
	sink.Play(s)
}

// Streamer builds the finite stream for a cue
func (c *Chimes) Streamer(cue Cue) (beep.Streamer, error) {
	tones, ok := cueTones[cue]
	if !ok {
		return nil, errors.Errorf("unknown cue %d", cue)
	}

	parts := make([]beep.Streamer, 0, len(tones))
	for _, t := range tones {
		sine, err := generators.SineTone(sampleRate, t.freq)
		if err != nil {
			return nil, errors.Wrapf(err, "tone %v Hz", t.freq)
		}
		n := sampleRate.N(t.dur)
		parts = append(parts, newRelease(beep.Take(n, sine), n, int(float64(n)*releaseFraction)))
	}

	return &effects.Volume{
		Streamer: beep.Seq(parts...),
		Base:     2,
		Volume:   c.volume,
	}, nil
}

// Close stops playback and releases the speaker
func (c *Chimes) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.speaker {
		speaker.Clear()
		speaker.Close()
		c.speaker = false
	}
	c.sink = nil
}

// release scales the last samples of a finite stream down to zero
type release struct {
	streamer beep.Streamer
	position int
	total    int
	tail     int
}

func newRelease(s beep.Streamer, total, tail int) beep.Streamer {
	return &release{streamer: s, total: total, tail: tail}
}

func (r *release) Stream(samples [][2]float64) (int, bool) {
	n, ok := r.streamer.Stream(samples)
	start := r.total - r.tail
	for i := 0; i < n; i++ {
		if r.tail > 0 && r.position >= start {
			g := float64(r.total-r.position) / float64(r.tail)
			samples[i][0] *= g
			samples[i][1] *= g
		}
		r.position++
	}
	return n, ok
}

func (r *release) Err() error { return r.streamer.Err() }
