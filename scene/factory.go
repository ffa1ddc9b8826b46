package scene

import (
	"slices"

	"github.com/lixenwraith/backdrop/canvas"
	"github.com/lixenwraith/backdrop/effect"
)

// Engine is a mounted effect, the director only ever destroys it
type Engine interface {
	Destroy()
}

// Factory mounts one effect on surface
type Factory func(surface *canvas.Surface, host effect.Host) (Engine, error)

// EffectOptions carries per-effect construction options
type EffectOptions struct {
	Particles []effect.ParticleOption
	Rain      effect.RainOptions
	Network   effect.NetworkOptions
}

// Factories returns constructors for the built-in effects keyed by effect name
func Factories(opts EffectOptions) map[string]Factory {
	particles := slices.Clone(opts.Particles)
	return map[string]Factory{
		"particles": func(s *canvas.Surface, h effect.Host) (Engine, error) {
			return effect.NewParticleSystem(s, h, particles...)
		},
		"rain": func(s *canvas.Surface, h effect.Host) (Engine, error) {
			return effect.NewMatrixRain(s, h, opts.Rain)
		},
		"network": func(s *canvas.Surface, h effect.Host) (Engine, error) {
			return effect.NewNeuralNetwork(s, h, opts.Network)
		},
	}
}
