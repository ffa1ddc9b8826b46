package effect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/backdrop/canvas"
	"github.com/lixenwraith/backdrop/hub"
)

func assertInBounds(t *testing.T, ps *ParticleSystem, w, h float64) {
	t.Helper()
	for i, p := range ps.Particles() {
		assert.GreaterOrEqual(t, p.X, 0.0, "particle %d x", i)
		assert.LessOrEqual(t, p.X, w, "particle %d x", i)
		assert.GreaterOrEqual(t, p.Y, 0.0, "particle %d y", i)
		assert.LessOrEqual(t, p.Y, h, "particle %d y", i)
	}
}

func TestParticleSystem_Defaults(t *testing.T) {
	env := newTestEnv(1)
	ps, err := NewParticleSystem(env.surface, env.host)
	require.NoError(t, err)
	defer ps.Destroy()

	assert.Equal(t, DefaultParticleOptions(), ps.Options())
	assert.Equal(t, 100, ps.Len())
	assert.Equal(t, 100, ps.layer.Len())
	assert.True(t, ps.Running())

	for _, p := range ps.Particles() {
		assert.GreaterOrEqual(t, p.Size, 1.0)
		assert.Less(t, p.Size, 3.0)
		assert.LessOrEqual(t, math.Abs(p.VX), 0.5)
		assert.Contains(t, DefaultParticleColors, p.Color)
	}
}

func TestParticleSystem_ExtraOptionsPassThrough(t *testing.T) {
	env := newTestEnv(1)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(1), WithExtra("theme", "dark"))
	require.NoError(t, err)
	defer ps.Destroy()

	opts := ps.Options()
	assert.Equal(t, "dark", opts.Extra["theme"])
	assert.Equal(t, 1, opts.Count)
	assert.Equal(t, 0.6, opts.Opacity)
}

func TestParticleSystem_InvalidOptions(t *testing.T) {
	env := newTestEnv(1)

	tests := []struct {
		name string
		opt  ParticleOption
	}{
		{"negative count", WithCount(-1)},
		{"bad color", WithColors("#00d4ff", "teal")},
		{"empty palette", WithColors()},
		{"opacity above one", WithOpacity(1.5)},
		{"negative size", WithSize(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParticleSystem(env.surface, env.host, tt.opt)
			assert.ErrorIs(t, err, ErrBadOption)
		})
	}
	assert.Equal(t, 0, env.surface.Layers())
}

func TestParticleSystem_StaysInBounds(t *testing.T) {
	env := newTestEnv(7)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(50), WithSpeed(40))
	require.NoError(t, err)
	defer ps.Destroy()

	w, h := env.surface.Size()
	for i := 0; i < 20; i++ {
		env.sched.StepN(25)
		assertInBounds(t, ps, w, h)
	}
}

func TestParticleSystem_ReflectsOncePerCrossing(t *testing.T) {
	env := newTestEnv(1)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(0))
	require.NoError(t, err)
	defer ps.Destroy()

	w, _ := env.surface.Size()
	ps.AddParticleAt(w-0.5, 100)
	p := ps.particles[0]
	p.VX, p.VY = 1, 0

	flips := 0
	prev := p.VX
	for i := 0; i < 10; i++ {
		env.sched.Step()
		if math.Signbit(p.VX) != math.Signbit(prev) {
			flips++
		}
		prev = p.VX
	}

	assert.Equal(t, 1, flips)
	assert.Equal(t, -1.0, p.VX)
	assert.InDelta(t, w-9, p.X, 1e-9)
}

func TestParticleOpacity_Periodic(t *testing.T) {
	period := 2 * math.Pi / lifeFreq // 100π
	for _, life := range []float64{0, 1.25, 37, 512.5, 9999} {
		base := particleOpacity(life)
		assert.InDelta(t, base, particleOpacity(life+period), 1e-9)
		assert.InDelta(t, base, particleOpacity(life+100*math.Pi/lifeFreq), 1e-9)
		assert.GreaterOrEqual(t, base, 0.0)
		assert.LessOrEqual(t, base, 1.0)
	}
}

func TestParticleSystem_OpacityFollowsLife(t *testing.T) {
	env := newTestEnv(2)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(5))
	require.NoError(t, err)
	defer ps.Destroy()

	before := ps.Particles()
	env.sched.Step()
	after := ps.Particles()

	for i := range after {
		assert.InDelta(t, before[i].Life+lifeStep, after[i].Life, 1e-12)
		assert.InDelta(t, particleOpacity(after[i].Life), after[i].Opacity, 1e-12)

		e := ps.particles[i].element
		assert.Equal(t, after[i].X, e.X)
		assert.Equal(t, after[i].Y, e.Y)
		assert.InDelta(t, after[i].Opacity*0.6, e.Opacity, 1e-12)
		assert.Equal(t, after[i].Size*2, e.Glow)
	}
}

func TestParticleSystem_RemoveParticles(t *testing.T) {
	tests := []struct {
		name        string
		pool, count int
		wantRemoved int
	}{
		{"partial", 10, 3, 3},
		{"exact", 10, 10, 10},
		{"more than pool", 10, 15, 10},
		{"zero", 10, 0, 0},
		{"negative", 10, -2, 0},
		{"empty pool", 0, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(1)
			ps, err := NewParticleSystem(env.surface, env.host, WithCount(tt.pool))
			require.NoError(t, err)
			defer ps.Destroy()

			elements := make([]*canvas.Element, len(ps.particles))
			for i, p := range ps.particles {
				elements[i] = p.element
			}

			removed := ps.RemoveParticles(tt.count)

			assert.Equal(t, tt.wantRemoved, removed)
			assert.Equal(t, tt.pool-tt.wantRemoved, ps.Len())
			assert.Equal(t, tt.pool-tt.wantRemoved, ps.layer.Len())

			detached := 0
			for _, e := range elements {
				if !e.Attached() {
					detached++
				}
			}
			assert.Equal(t, tt.wantRemoved, detached)
		})
	}
}

func TestParticleSystem_AddParticle(t *testing.T) {
	env := newTestEnv(1)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(0))
	require.NoError(t, err)
	defer ps.Destroy()

	ps.AddParticle()
	ps.AddParticleAt(0, 0)

	require.Equal(t, 2, ps.Len())
	assert.Equal(t, 2, ps.layer.Len())
	last := ps.Particles()[1]
	assert.Equal(t, 0.0, last.X)
	assert.Equal(t, 0.0, last.Y)
}

func TestParticleSystem_ClickAddsParticle(t *testing.T) {
	env := newTestEnv(1)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(3))
	require.NoError(t, err)

	env.events.Publish(hub.Click{X: 120, Y: 64})

	require.Equal(t, 4, ps.Len())
	last := ps.Particles()[3]
	assert.Equal(t, 120.0, last.X)
	assert.Equal(t, 64.0, last.Y)

	ps.Destroy()
	assert.Equal(t, 0, env.events.Count(hub.KindClick))
	env.events.Publish(hub.Click{X: 1, Y: 1})
	assert.Equal(t, 0, ps.Len())
}

func TestParticleSystem_PointerAttraction(t *testing.T) {
	tests := []struct {
		name        string
		interactive bool
		pointer     hub.PointerMove
		wantVX      float64
	}{
		{"pulls toward pointer", true, hub.PointerMove{X: 150, Y: 100}, 0.05},
		{"pulls from the other side", true, hub.PointerMove{X: 75, Y: 100}, -0.075},
		{"out of range", true, hub.PointerMove{X: 250, Y: 100}, 0},
		{"disabled", false, hub.PointerMove{X: 150, Y: 100}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(1)
			ps, err := NewParticleSystem(env.surface, env.host, WithCount(0), WithInteractive(tt.interactive))
			require.NoError(t, err)
			defer ps.Destroy()

			ps.AddParticleAt(100, 100)
			p := ps.particles[0]
			p.VX, p.VY = 0, 0

			env.events.Publish(tt.pointer)
			x, y, ok := ps.Pointer()
			require.True(t, ok)
			assert.Equal(t, tt.pointer.X, x)
			assert.Equal(t, tt.pointer.Y, y)

			env.sched.Step()

			assert.InDelta(t, tt.wantVX, p.VX, 1e-12)
			assert.InDelta(t, 0, p.VY, 1e-12)
		})
	}
}

func TestParticleSystem_NoAttractionBeforePointerKnown(t *testing.T) {
	env := newTestEnv(1)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(0))
	require.NoError(t, err)
	defer ps.Destroy()

	ps.AddParticleAt(10, 10)
	p := ps.particles[0]
	p.VX, p.VY = 0, 0

	env.sched.Step()

	assert.Equal(t, 0.0, p.VX)
	assert.Equal(t, 0.0, p.VY)
}

func TestParticleSystem_ResizeClamps(t *testing.T) {
	env := newTestEnv(5)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(100), WithInteractive(false))
	require.NoError(t, err)
	defer ps.Destroy()

	env.resize(20, 6)

	assert.Equal(t, 100, ps.Len())
	assertInBounds(t, ps, 160, 96)

	env.sched.StepN(50)
	assertInBounds(t, ps, 160, 96)
}

func TestParticleSystem_UpdateOptions(t *testing.T) {
	env := newTestEnv(1)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(5))
	require.NoError(t, err)
	defer ps.Destroy()

	sizes := make([]float64, ps.Len())
	for i, p := range ps.Particles() {
		sizes[i] = p.Size
	}

	require.NoError(t, ps.UpdateOptions(WithInteractive(false), WithSize(10), WithOpacity(0.3)))
	opts := ps.Options()
	assert.False(t, opts.Interactive)
	assert.Equal(t, 10.0, opts.Size)
	assert.Equal(t, 5, opts.Count)

	env.sched.Step()
	for i, p := range ps.Particles() {
		assert.Equal(t, sizes[i], p.Size)
		assert.InDelta(t, p.Opacity*0.3, ps.particles[i].element.Opacity, 1e-12)
	}

	err = ps.UpdateOptions(WithColors("not-a-color"), WithSpeed(9))
	assert.ErrorIs(t, err, ErrBadOption)
	assert.Equal(t, opts, ps.Options())
}

func TestParticleSystem_OptionsAreCopies(t *testing.T) {
	env := newTestEnv(1)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(1), WithExtra("k", 1))
	require.NoError(t, err)
	defer ps.Destroy()

	opts := ps.Options()
	opts.Colors[0] = "#000000"
	opts.Extra["k"] = 2

	assert.Equal(t, DefaultParticleColors[0], ps.Options().Colors[0])
	assert.Equal(t, 1, ps.Options().Extra["k"])
}

func TestParticleSystem_DestroyIdempotent(t *testing.T) {
	env := newTestEnv(1)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(10))
	require.NoError(t, err)
	env.sched.StepN(3)

	elements := make([]*canvas.Element, len(ps.particles))
	for i, p := range ps.particles {
		elements[i] = p.element
	}

	ps.Destroy()
	assert.NotPanics(t, ps.Destroy)

	assert.Equal(t, 0, env.sched.Pending())
	assert.Equal(t, 0, env.sched.Step())
	assert.Equal(t, 0, ps.Len())
	assert.False(t, ps.Running())
	assert.Equal(t, 0, env.surface.Layers())
	assert.Equal(t, 0, env.events.Count(hub.KindPointer))
	for _, e := range elements {
		assert.False(t, e.Attached())
	}

	ps.AddParticle()
	assert.Equal(t, 0, ps.Len())
}

func TestParticleSystem_StopsWhenLayerDetached(t *testing.T) {
	env := newTestEnv(1)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(3))
	require.NoError(t, err)

	ps.layer.Detach()
	env.sched.Step()

	assert.False(t, ps.Running())
	assert.ErrorIs(t, ps.Err(), canvas.ErrDetached)
	assert.Equal(t, 0, env.sched.Pending())
	assert.NotPanics(t, ps.Destroy)
}

func TestParticleSystem_StopsOnPanickingFrame(t *testing.T) {
	env := newTestEnv(1)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(1))
	require.NoError(t, err)

	// a particle without an element panics inside the frame
	ps.particles = append(ps.particles, &Particle{})

	assert.NotPanics(t, func() { env.sched.Step() })
	assert.False(t, ps.Running())
	assert.Error(t, ps.Err())
	assert.Equal(t, 0, env.sched.Pending())

	ps.particles = ps.particles[:1]
	ps.Destroy()
}

func TestParticleSystem_Scenario(t *testing.T) {
	env := newTestEnv(42)
	ps, err := NewParticleSystem(env.surface, env.host, WithCount(10), WithInteractive(false))
	require.NoError(t, err)
	defer ps.Destroy()

	assert.Equal(t, 1000, env.sched.StepN(1000))

	w, h := env.surface.Size()
	assert.Equal(t, 10, ps.Len())
	assertInBounds(t, ps, w, h)
	assert.True(t, ps.Running())
}

func TestParseParticleOptions(t *testing.T) {
	opts, err := ParseParticleOptions(map[string]any{
		"count":       10,
		"interactive": false,
		"colors":      []any{"#ffffff", "#000000"},
		"speed":       1.5,
		"size":        3,
		"opacity":     0.4,
		"theme":       "dark",
	})
	require.NoError(t, err)

	o := DefaultParticleOptions()
	for _, opt := range opts {
		opt(&o)
	}
	assert.Equal(t, 10, o.Count)
	assert.False(t, o.Interactive)
	assert.Equal(t, []string{"#ffffff", "#000000"}, o.Colors)
	assert.Equal(t, 1.5, o.Speed)
	assert.Equal(t, 3.0, o.Size)
	assert.Equal(t, 0.4, o.Opacity)
	assert.Equal(t, map[string]any{"theme": "dark"}, o.Extra)
}

func TestParseParticleOptions_TypeErrors(t *testing.T) {
	tests := []map[string]any{
		{"count": "ten"},
		{"count": 1.5},
		{"speed": true},
		{"interactive": "yes"},
		{"colors": "#fff"},
		{"colors": []any{"#fff", 3}},
	}
	for _, m := range tests {
		_, err := ParseParticleOptions(m)
		assert.ErrorIs(t, err, ErrBadOption, "%v", m)
	}
}
