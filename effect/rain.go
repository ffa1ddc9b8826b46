package effect

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/backdrop/canvas"
	"github.com/lixenwraith/backdrop/hub"
)

// DefaultRainGlyphs are binary digits and half-width katakana, all single-cell wide
const DefaultRainGlyphs = "01ｱｲｳｴｵｶｷｸｹｺｻｼｽｾｿﾀﾁﾂﾃﾄﾅﾆﾇﾈﾉﾊﾋﾌﾍﾎﾏﾐﾑﾒﾓﾔﾕﾖﾗﾘﾙﾚﾛﾜｦﾝ"

// RainOptions configures MatrixRain, zero fields take defaults
type RainOptions struct {
	Glyphs      string
	Color       string  // glyph color, hex
	Wash        string  // trail wash color, hex
	WashAlpha   float64 // wash alpha per frame
	ColumnWidth float64
	Step        float64 // vertical advance per frame
	ResetChance float64 // per-frame restart probability once a drop is past the bottom
	Opacity     float64 // canvas opacity
}

// DefaultRainOptions returns the stock configuration
func DefaultRainOptions() RainOptions {
	return RainOptions{
		Glyphs:      DefaultRainGlyphs,
		Color:       "#00d4ff",
		Wash:        "#0a0a0f",
		WashAlpha:   0.05,
		ColumnWidth: 20,
		Step:        20,
		ResetChance: 0.025,
		Opacity:     0.1,
	}
}

// Validate rejects negative sizes and colors or fractions that cannot be used; zero fields pass
func (o RainOptions) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"wash alpha", o.WashAlpha}, {"column width", o.ColumnWidth}, {"step", o.Step}, {"reset chance", o.ResetChance}, {"opacity", o.Opacity}} {
		if f.v < 0 {
			return errors.Wrapf(ErrBadOption, "%s %v is negative", f.name, f.v)
		}
	}
	if o.WashAlpha > 1 || o.ResetChance > 1 || o.Opacity > 1 {
		return errors.Wrap(ErrBadOption, "wash alpha, reset chance and opacity must be at most 1")
	}
	if o.Color != "" {
		if _, err := canvas.ParseHex(o.Color); err != nil {
			return wrapOption(err, "color")
		}
	}
	if o.Wash != "" {
		if _, err := canvas.ParseHex(o.Wash); err != nil {
			return wrapOption(err, "wash")
		}
	}
	return nil
}

func (o RainOptions) withDefaults() RainOptions {
	d := DefaultRainOptions()
	if o.Glyphs == "" {
		o.Glyphs = d.Glyphs
	}
	if o.Color == "" {
		o.Color = d.Color
	}
	if o.Wash == "" {
		o.Wash = d.Wash
	}
	if o.WashAlpha == 0 {
		o.WashAlpha = d.WashAlpha
	}
	if o.ColumnWidth == 0 {
		o.ColumnWidth = d.ColumnWidth
	}
	if o.Step == 0 {
		o.Step = d.Step
	}
	if o.ResetChance == 0 {
		o.ResetChance = d.ResetChance
	}
	if o.Opacity == 0 {
		o.Opacity = d.Opacity
	}
	return o
}

// MatrixRain draws falling glyph columns over a fading trail
type MatrixRain struct {
	surface *canvas.Surface
	canvas  *canvas.Canvas
	rng     *rand.Rand
	log     zerolog.Logger

	opts   RainOptions
	glyphs []rune
	color  canvas.RGB
	wash   canvas.RGB

	drops []float64

	subs      []*hub.Subscription
	loop      frameLoop
	destroyed bool
}

// NewMatrixRain mounts a rain canvas on container and starts its frame loop
func NewMatrixRain(container *canvas.Surface, host Host, opts RainOptions) (*MatrixRain, error) {
	if container == nil {
		return nil, ErrNoContainer
	}
	if err := host.validate(); err != nil {
		return nil, err
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	o := opts.withDefaults()
	color, err := canvas.ParseHex(o.Color)
	if err != nil {
		return nil, wrapOption(err, "color")
	}
	wash, err := canvas.ParseHex(o.Wash)
	if err != nil {
		return nil, wrapOption(err, "wash")
	}

	mr := &MatrixRain{
		surface: container,
		canvas:  container.NewCanvas(o.Opacity),
		rng:     host.rng(),
		log:     host.logger("rain"),
		opts:    o,
		glyphs:  []rune(o.Glyphs),
		color:   color,
		wash:    wash,
	}
	mr.loop = newFrameLoop(host.Scheduler, mr.step, mr.log)
	mr.rebuild()

	if sub := host.subscribe(hub.KindResize, mr.onResize); sub != nil {
		mr.subs = append(mr.subs, sub)
	}

	mr.loop.start()
	mr.log.Debug().Int("columns", len(mr.drops)).Msg("matrix rain mounted")
	return mr, nil
}

// rebuild recomputes the column count and randomizes every offset
func (mr *MatrixRain) rebuild() {
	w, h := mr.canvas.Size()
	columns := int(math.Floor(w / mr.opts.ColumnWidth))
	mr.drops = make([]float64, max(columns, 0))
	for i := range mr.drops {
		mr.drops[i] = mr.rng.Float64() * h
	}
}

func (mr *MatrixRain) step() error {
	w, h := mr.canvas.Size()
	if err := mr.canvas.FillRect(0, 0, w, h, mr.wash, mr.opts.WashAlpha); err != nil {
		return err
	}

	threshold := 1 - mr.opts.ResetChance
	for i, drop := range mr.drops {
		g := mr.glyphs[mr.rng.Intn(len(mr.glyphs))]
		if err := mr.canvas.FillText(float64(i)*mr.opts.ColumnWidth, drop, g, mr.color); err != nil {
			return err
		}
		if drop > h && mr.rng.Float64() > threshold {
			mr.drops[i] = 0
		}
		mr.drops[i] += mr.opts.Step
	}
	return nil
}

func (mr *MatrixRain) onResize(hub.Event) {
	if mr.canvas.Attached() {
		mr.rebuild()
	}
}

// Columns returns the current column count
func (mr *MatrixRain) Columns() int {
	return len(mr.drops)
}

// Drops returns a snapshot of column offsets
func (mr *MatrixRain) Drops() []float64 {
	out := make([]float64, len(mr.drops))
	copy(out, mr.drops)
	return out
}

// Canvas exposes the canvas the rain draws into
func (mr *MatrixRain) Canvas() *canvas.Canvas {
	return mr.canvas
}

// Running reports whether the frame loop is active
func (mr *MatrixRain) Running() bool {
	return mr.loop.running
}

// Err returns the error that stopped the loop, if any
func (mr *MatrixRain) Err() error {
	return mr.loop.err
}

// Destroy stops the loop and detaches the canvas, idempotent
func (mr *MatrixRain) Destroy() {
	if mr.destroyed {
		return
	}
	mr.destroyed = true
	mr.loop.stop()
	for _, s := range mr.subs {
		s.Unsubscribe()
	}
	mr.subs = nil
	mr.canvas.Detach()
	mr.log.Debug().Msg("matrix rain destroyed")
}
