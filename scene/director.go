// Package scene mounts and unmounts effects on a shared surface as named scenes, optionally
// rotating through them on a cron schedule.
//
// A Director is confined to the render loop goroutine; the rotation job reaches it through
// scheduler.Poster.
package scene

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/backdrop/canvas"
	"github.com/lixenwraith/backdrop/effect"
	"github.com/lixenwraith/backdrop/scheduler"
	"github.com/lixenwraith/backdrop/sound"
)

var (
	ErrUnknownEffect = errors.New("scene: unknown effect")
	ErrUnknownScene  = errors.New("scene: unknown scene")
	ErrNoScenes      = errors.New("scene: no scenes configured")
)

// Scene is a named set of effects shown together, in draw order
type Scene struct {
	Name    string
	Effects []string
}

// Mount records one live engine
type Mount struct {
	ID      uuid.UUID
	Effect  string
	Engine  Engine
	Mounted time.Time
}

// Director owns every engine mounted on its surface
type Director struct {
	surface   *canvas.Surface
	host      effect.Host
	factories map[string]Factory
	scenes    []Scene
	chimes    *sound.Chimes
	log       zerolog.Logger
	now       func() time.Time

	current int
	mounts  []*Mount

	cron *cron.Cron
}

// NewDirector prepares a director, nothing is mounted until Show or Mount
func NewDirector(surface *canvas.Surface, host effect.Host, factories map[string]Factory, scenes []Scene, chimes *sound.Chimes) (*Director, error) {
	if surface == nil {
		return nil, effect.ErrNoContainer
	}
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}
	for _, s := range scenes {
		for _, e := range s.Effects {
			if _, ok := factories[e]; !ok {
				return nil, errors.Wrapf(ErrUnknownEffect, "scene %q: %s", s.Name, e)
			}
		}
	}

	log := zerolog.Nop()
	if host.Log != nil {
		log = host.Log.With().Str("component", "director").Logger()
	}
	return &Director{
		surface:   surface,
		host:      host,
		factories: factories,
		scenes:    slices.Clone(scenes),
		chimes:    chimes,
		log:       log,
		now:       time.Now,
		current:   -1,
	}, nil
}

// Mount starts effect unless it is already live, returns its record
func (d *Director) Mount(name string) (*Mount, error) {
	if m := d.find(name); m != nil {
		return m, nil
	}
	factory, ok := d.factories[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownEffect, name)
	}

	id := uuid.New()
	host := d.host
	child := d.log.With().Str("instance", id.String()).Logger()
	host.Log = &child

	engine, err := factory(d.surface, host)
	if err != nil {
		return nil, errors.Wrapf(err, "mount %s", name)
	}
	m := &Mount{ID: id, Effect: name, Engine: engine, Mounted: d.now()}
	d.mounts = append(d.mounts, m)
	d.log.Info().Str("effect", name).Str("instance", id.String()).Msg("mounted")
	return m, nil
}

// Unmount destroys effect, returns false when it was not mounted
func (d *Director) Unmount(name string) bool {
	i := slices.IndexFunc(d.mounts, func(m *Mount) bool { return m.Effect == name })
	if i < 0 {
		return false
	}
	m := d.mounts[i]
	d.mounts = slices.Delete(d.mounts, i, i+1)
	m.Engine.Destroy()
	d.log.Info().Str("effect", name).Str("instance", m.ID.String()).Dur("lifetime", d.now().Sub(m.Mounted)).Msg("unmounted")
	return true
}

// Toggle mounts effect when absent and unmounts it otherwise, returns whether it is now mounted
func (d *Director) Toggle(name string) (bool, error) {
	if d.Unmount(name) {
		return false, nil
	}
	if _, err := d.Mount(name); err != nil {
		return false, err
	}
	return true, nil
}

// Show switches to the named scene: effects outside it are unmounted, missing ones are mounted
func (d *Director) Show(name string) error {
	idx := slices.IndexFunc(d.scenes, func(s Scene) bool { return s.Name == name })
	if idx < 0 {
		return errors.Wrap(ErrUnknownScene, name)
	}
	return d.show(idx)
}

// Next advances to the following scene, wrapping around
func (d *Director) Next() error {
	return d.show((d.current + 1) % len(d.scenes))
}

// show mounts what the scene lacks before touching anything else; a failed mount rolls back
// the effects mounted here and leaves the previous scene showing
func (d *Director) show(idx int) error {
	s := d.scenes[idx]
	var added []string
	for _, e := range s.Effects {
		if d.find(e) != nil {
			continue
		}
		if _, err := d.Mount(e); err != nil {
			for _, a := range slices.Backward(added) {
				d.Unmount(a)
			}
			return errors.Wrapf(err, "show %s", s.Name)
		}
		added = append(added, e)
	}
	for _, m := range slices.Clone(d.mounts) {
		if !slices.Contains(s.Effects, m.Effect) {
			d.Unmount(m.Effect)
		}
	}
	d.current = idx
	d.chimes.Play(sound.CueScene)
	d.log.Info().Str("scene", s.Name).Int("effects", len(s.Effects)).Msg("scene shown")
	return nil
}

// Current returns the active scene name, empty before the first Show
func (d *Director) Current() string {
	if d.current < 0 {
		return ""
	}
	return d.scenes[d.current].Name
}

// Mounts returns live records in mount order
func (d *Director) Mounts() []*Mount {
	return slices.Clone(d.mounts)
}

// Engine returns the live engine for effect
func (d *Director) Engine(name string) (Engine, bool) {
	if m := d.find(name); m != nil {
		return m.Engine, true
	}
	return nil, false
}

func (d *Director) find(name string) *Mount {
	for _, m := range d.mounts {
		if m.Effect == name {
			return m
		}
	}
	return nil
}

// StartRotation advances the scene on a standard cron spec; the switch runs on the loop via post
func (d *Director) StartRotation(spec string, post scheduler.Poster) error {
	if d.cron != nil {
		return errors.New("scene: rotation already running")
	}
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{d.log})))
	if _, err := c.AddFunc(spec, d.rotationJob(post)); err != nil {
		return errors.Wrapf(err, "rotation schedule %q", spec)
	}
	c.Start()
	d.cron = c
	d.log.Info().Str("schedule", spec).Msg("rotation started")
	return nil
}

func (d *Director) rotationJob(post scheduler.Poster) func() {
	return func() {
		post.Post(func() {
			if err := d.Next(); err != nil {
				d.log.Error().Err(err).Msg("rotation failed")
			}
		})
	}
}

// Close stops rotation and destroys every mounted engine
func (d *Director) Close() {
	if d.cron != nil {
		<-d.cron.Stop().Done()
		d.cron = nil
	}
	for len(d.mounts) > 0 {
		d.Unmount(d.mounts[len(d.mounts)-1].Effect)
	}
}

// cronLogger routes cron diagnostics into zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
