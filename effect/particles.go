package effect

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lixenwraith/backdrop/canvas"
	"github.com/lixenwraith/backdrop/hub"
)

// Particle motion constants
const (
	attractRadius = 100.0
	attractGain   = 0.1
	lifeStep      = 0.5
	lifeFreq      = 0.02
)

// Particle is one drifting dot
type Particle struct {
	X, Y    float64
	VX, VY  float64
	Size    float64
	Color   string
	Opacity float64 // breathing phase output in [0, 1], before the options opacity scale
	Life    float64

	rgb     canvas.RGB
	element *canvas.Element
}

// particleOpacity maps the life phase to a smooth oscillation in [0, 1]
func particleOpacity(life float64) float64 {
	return math.Sin(life*lifeFreq)*0.5 + 0.5
}

// ParticleSystem animates a pool of dots rendered as layer elements
type ParticleSystem struct {
	surface *canvas.Surface
	layer   *canvas.Layer
	rng     *rand.Rand
	log     zerolog.Logger

	opts    ParticleOptions
	palette []canvas.RGB

	particles []*Particle

	pointer    r2.Vec
	hasPointer bool

	subs      []*hub.Subscription
	loop      frameLoop
	destroyed bool
}

// NewParticleSystem mounts a particle layer on container and starts its frame loop
func NewParticleSystem(container *canvas.Surface, host Host, opts ...ParticleOption) (*ParticleSystem, error) {
	if container == nil {
		return nil, ErrNoContainer
	}
	if err := host.validate(); err != nil {
		return nil, err
	}

	o := DefaultParticleOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	palette, err := o.palette()
	if err != nil {
		return nil, err
	}

	ps := &ParticleSystem{
		surface: container,
		layer:   container.NewLayer(),
		rng:     host.rng(),
		log:     host.logger("particles"),
		opts:    o,
		palette: palette,
	}
	ps.loop = newFrameLoop(host.Scheduler, ps.step, ps.log)

	for i := 0; i < o.Count; i++ {
		ps.particles = append(ps.particles, ps.spawn())
	}

	if sub := host.subscribe(hub.KindPointer, ps.onPointer); sub != nil {
		ps.subs = append(ps.subs, sub)
	}
	if sub := host.subscribe(hub.KindResize, ps.onResize); sub != nil {
		ps.subs = append(ps.subs, sub)
	}
	if sub := host.subscribe(hub.KindClick, ps.onClick); sub != nil {
		ps.subs = append(ps.subs, sub)
	}

	ps.loop.start()
	ps.log.Debug().Int("count", o.Count).Bool("interactive", o.Interactive).Msg("particle system mounted")
	return ps, nil
}

// spawn creates a particle at a random position with its element attached
func (ps *ParticleSystem) spawn() *Particle {
	w, h := ps.surface.Size()
	r := ps.rng
	idx := r.Intn(len(ps.palette))
	p := &Particle{
		X:       r.Float64() * w,
		Y:       r.Float64() * h,
		VX:      (r.Float64() - 0.5) * ps.opts.Speed,
		VY:      (r.Float64() - 0.5) * ps.opts.Speed,
		Size:    r.Float64()*ps.opts.Size + 1,
		Color:   ps.opts.Colors[idx],
		Opacity: r.Float64() * ps.opts.Opacity,
		Life:    r.Float64() * 100,
		rgb:     ps.palette[idx],
		element: ps.layer.Append(),
	}
	ps.sync(p)
	return p
}

func (ps *ParticleSystem) step() error {
	if !ps.layer.Attached() {
		return canvas.ErrDetached
	}
	w, h := ps.surface.Size()
	for _, p := range ps.particles {
		ps.update(p, w, h)
	}
	return nil
}

func (ps *ParticleSystem) update(p *Particle, w, h float64) {
	p.X, p.VX = bounce(p.X, p.VX, w)
	p.Y, p.VY = bounce(p.Y, p.VY, h)

	if ps.opts.Interactive && ps.hasPointer {
		d := r2.Sub(ps.pointer, r2.Vec{X: p.X, Y: p.Y})
		dist := r2.Norm(d)
		// Velocity is left uncapped, sustained proximity keeps accelerating the particle
		if dist > 0 && dist < attractRadius {
			force := (attractRadius - dist) / attractRadius * attractGain
			p.VX += d.X / dist * force
			p.VY += d.Y / dist * force
		}
	}

	p.Life += lifeStep
	p.Opacity = particleOpacity(p.Life)
	ps.sync(p)
}

// sync writes the full visual state, unconditionally
func (ps *ParticleSystem) sync(p *Particle) {
	e := p.element
	e.X = p.X
	e.Y = p.Y
	e.Size = p.Size
	e.Color = p.rgb
	e.Opacity = p.Opacity * ps.opts.Opacity
	e.Glow = p.Size * 2
}

func (ps *ParticleSystem) onPointer(ev hub.Event) {
	m := ev.(hub.PointerMove)
	ps.pointer = r2.Vec{X: m.X, Y: m.Y}
	ps.hasPointer = true
}

// onClick adds a particle under the press
func (ps *ParticleSystem) onClick(ev hub.Event) {
	c := ev.(hub.Click)
	ps.AddParticleAt(c.X, c.Y)
}

// onResize clamps existing particles into the new bounds, nothing respawns
func (ps *ParticleSystem) onResize(ev hub.Event) {
	r := ev.(hub.Resize)
	for _, p := range ps.particles {
		p.X = clampRange(p.X, 0, r.Width)
		p.Y = clampRange(p.Y, 0, r.Height)
		ps.sync(p)
	}
}

// AddParticle appends one particle at a random position
func (ps *ParticleSystem) AddParticle() {
	if ps.destroyed {
		return
	}
	ps.particles = append(ps.particles, ps.spawn())
}

// AddParticleAt appends one particle at (x, y)
func (ps *ParticleSystem) AddParticleAt(x, y float64) {
	if ps.destroyed {
		return
	}
	p := ps.spawn()
	p.X, p.Y = x, y
	ps.sync(p)
	ps.particles = append(ps.particles, p)
}

// RemoveParticles pops up to count particles from the end, detaching their elements
// Returns the number removed
func (ps *ParticleSystem) RemoveParticles(count int) int {
	removed := 0
	for removed < count && len(ps.particles) > 0 {
		last := len(ps.particles) - 1
		p := ps.particles[last]
		ps.particles[last] = nil
		ps.particles = ps.particles[:last]
		p.element.Detach()
		removed++
	}
	return removed
}

// UpdateOptions shallow-merges opts into the configuration
// Existing particles keep their size, speed and color; later frames and spawns see the change
// On validation failure the configuration is left untouched
func (ps *ParticleSystem) UpdateOptions(opts ...ParticleOption) error {
	next := ps.opts.clone()
	for _, opt := range opts {
		opt(&next)
	}
	if err := next.validate(); err != nil {
		return err
	}
	palette, err := next.palette()
	if err != nil {
		return err
	}
	ps.opts = next
	ps.palette = palette
	return nil
}

// Options returns a copy of the current configuration
func (ps *ParticleSystem) Options() ParticleOptions {
	return ps.opts.clone()
}

// Len returns the live particle count
func (ps *ParticleSystem) Len() int {
	return len(ps.particles)
}

// Particles returns a snapshot of particle state
func (ps *ParticleSystem) Particles() []Particle {
	out := make([]Particle, len(ps.particles))
	for i, p := range ps.particles {
		out[i] = *p
		out[i].element = nil
	}
	return out
}

// Pointer returns the last known pointer position
func (ps *ParticleSystem) Pointer() (x, y float64, ok bool) {
	return ps.pointer.X, ps.pointer.Y, ps.hasPointer
}

// Running reports whether the frame loop is active
func (ps *ParticleSystem) Running() bool {
	return ps.loop.running
}

// Err returns the error that stopped the loop, if any
func (ps *ParticleSystem) Err() error {
	return ps.loop.err
}

// Destroy stops the loop, drops event subscriptions and detaches every element, idempotent
func (ps *ParticleSystem) Destroy() {
	if ps.destroyed {
		return
	}
	ps.destroyed = true
	ps.loop.stop()
	for _, s := range ps.subs {
		s.Unsubscribe()
	}
	ps.subs = nil
	for _, p := range ps.particles {
		p.element.Detach()
	}
	ps.particles = nil
	ps.layer.Detach()
	ps.log.Debug().Msg("particle system destroyed")
}
