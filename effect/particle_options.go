package effect

import (
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/lixenwraith/backdrop/canvas"
)

// DefaultParticleColors is the stock palette
var DefaultParticleColors = []string{"#00d4ff", "#8b5cf6", "#00ff88", "#ff6b6b"}

// ParticleOptions configures a ParticleSystem
type ParticleOptions struct {
	Count       int      // initial pool size
	Colors      []string // palette, hex
	Speed       float64  // initial velocity scale
	Size        float64  // maximum extra radius over the 1 unit minimum
	Opacity     float64  // maximum opacity
	Interactive bool     // pointer attraction

	// Extra holds caller keys the system does not interpret, kept verbatim
	Extra map[string]any
}

// DefaultParticleOptions returns the stock configuration
func DefaultParticleOptions() ParticleOptions {
	return ParticleOptions{
		Count:       100,
		Colors:      slices.Clone(DefaultParticleColors),
		Speed:       1,
		Size:        2,
		Opacity:     0.6,
		Interactive: true,
	}
}

// clone deep-copies slices and maps so callers cannot alias engine state
func (o ParticleOptions) clone() ParticleOptions {
	o.Colors = slices.Clone(o.Colors)
	o.Extra = maps.Clone(o.Extra)
	return o
}

// palette parses Colors
func (o ParticleOptions) palette() ([]canvas.RGB, error) {
	if len(o.Colors) == 0 {
		return nil, errors.Wrap(ErrBadOption, "colors: palette is empty")
	}
	out := make([]canvas.RGB, len(o.Colors))
	for i, s := range o.Colors {
		c, err := canvas.ParseHex(s)
		if err != nil {
			return nil, errors.Wrapf(ErrBadOption, "colors[%d]: %v", i, err)
		}
		out[i] = c
	}
	return out, nil
}

func (o ParticleOptions) validate() error {
	if o.Count < 0 {
		return errors.Wrapf(ErrBadOption, "count %d is negative", o.Count)
	}
	if o.Size < 0 {
		return errors.Wrapf(ErrBadOption, "size %v is negative", o.Size)
	}
	if o.Opacity < 0 || o.Opacity > 1 {
		return errors.Wrapf(ErrBadOption, "opacity %v outside [0, 1]", o.Opacity)
	}
	return nil
}

// ParticleOption overrides one field
type ParticleOption func(*ParticleOptions)

// WithCount sets the pool size used at construction
func WithCount(n int) ParticleOption {
	return func(o *ParticleOptions) { o.Count = n }
}

// WithColors sets the palette
func WithColors(colors ...string) ParticleOption {
	return func(o *ParticleOptions) { o.Colors = slices.Clone(colors) }
}

// WithSpeed sets the initial velocity scale
func WithSpeed(v float64) ParticleOption {
	return func(o *ParticleOptions) { o.Speed = v }
}

// WithSize sets the maximum extra radius
func WithSize(v float64) ParticleOption {
	return func(o *ParticleOptions) { o.Size = v }
}

// WithOpacity sets the maximum opacity
func WithOpacity(v float64) ParticleOption {
	return func(o *ParticleOptions) { o.Opacity = v }
}

// WithInteractive toggles pointer attraction
func WithInteractive(on bool) ParticleOption {
	return func(o *ParticleOptions) { o.Interactive = on }
}

// WithExtra stores an uninterpreted key
func WithExtra(key string, value any) ParticleOption {
	return func(o *ParticleOptions) {
		if o.Extra == nil {
			o.Extra = make(map[string]any)
		}
		o.Extra[key] = value
	}
}

// ParseParticleOptions converts a loosely typed map, as decoded from YAML, into options
// Recognized keys must carry the right type; every other key becomes an extra
func ParseParticleOptions(m map[string]any) ([]ParticleOption, error) {
	keys := slices.Sorted(maps.Keys(m))
	opts := make([]ParticleOption, 0, len(m))

	for _, k := range keys {
		v := m[k]
		switch k {
		case "count":
			n, ok := toFloat(v)
			if !ok || n != float64(int(n)) {
				return nil, errors.Wrapf(ErrBadOption, "count: want integer, got %T", v)
			}
			opts = append(opts, WithCount(int(n)))
		case "speed", "size", "opacity":
			f, ok := toFloat(v)
			if !ok {
				return nil, errors.Wrapf(ErrBadOption, "%s: want number, got %T", k, v)
			}
			switch k {
			case "speed":
				opts = append(opts, WithSpeed(f))
			case "size":
				opts = append(opts, WithSize(f))
			default:
				opts = append(opts, WithOpacity(f))
			}
		case "interactive":
			b, ok := v.(bool)
			if !ok {
				return nil, errors.Wrapf(ErrBadOption, "interactive: want bool, got %T", v)
			}
			opts = append(opts, WithInteractive(b))
		case "colors":
			colors, ok := toStrings(v)
			if !ok {
				return nil, errors.Wrapf(ErrBadOption, "colors: want list of strings, got %T", v)
			}
			opts = append(opts, WithColors(colors...))
		default:
			opts = append(opts, WithExtra(k, v))
		}
	}
	return opts, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func toStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = str
		}
		return out, true
	}
	return nil, false
}
