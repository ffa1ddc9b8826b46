package effect

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lixenwraith/backdrop/canvas"
	"github.com/lixenwraith/backdrop/hub"
)

// NetworkOptions configures NeuralNetwork, zero fields take defaults
type NetworkOptions struct {
	Nodes     int
	Radius    float64 // connection radius
	Speed     float64 // initial velocity scale
	PulseStep float64 // pulse phase advance per frame
	Color     string
	Opacity   float64 // canvas opacity
}

// DefaultNetworkOptions returns the stock configuration
func DefaultNetworkOptions() NetworkOptions {
	return NetworkOptions{
		Nodes:     50,
		Radius:    150,
		Speed:     0.5,
		PulseStep: 0.02,
		Color:     "#00d4ff",
		Opacity:   0.3,
	}
}

// Validate rejects negative counts and sizes and an unparseable color; zero fields pass
func (o NetworkOptions) Validate() error {
	if o.Nodes < 0 {
		return errors.Wrapf(ErrBadOption, "nodes %d is negative", o.Nodes)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"radius", o.Radius}, {"speed", o.Speed}, {"pulse step", o.PulseStep}, {"opacity", o.Opacity}} {
		if f.v < 0 {
			return errors.Wrapf(ErrBadOption, "%s %v is negative", f.name, f.v)
		}
	}
	if o.Opacity > 1 {
		return errors.Wrapf(ErrBadOption, "opacity %v above 1", o.Opacity)
	}
	if o.Color != "" {
		if _, err := canvas.ParseHex(o.Color); err != nil {
			return wrapOption(err, "color")
		}
	}
	return nil
}

func (o NetworkOptions) withDefaults() NetworkOptions {
	d := DefaultNetworkOptions()
	if o.Nodes == 0 {
		o.Nodes = d.Nodes
	}
	if o.Radius == 0 {
		o.Radius = d.Radius
	}
	if o.Speed == 0 {
		o.Speed = d.Speed
	}
	if o.PulseStep == 0 {
		o.PulseStep = d.PulseStep
	}
	if o.Color == "" {
		o.Color = d.Color
	}
	if o.Opacity == 0 {
		o.Opacity = d.Opacity
	}
	return o
}

// Node is one vertex of the graph
type Node struct {
	Pos   r2.Vec
	Vel   r2.Vec
	Size  float64
	Pulse float64
}

// Connection links two node indices, From < To
type Connection struct {
	From, To int
	Strength float64 // 1 at zero distance, 0 at the radius
}

// Connect returns every pair of nodes closer than radius, strength falling linearly with distance
func Connect(nodes []Node, radius float64) []Connection {
	var out []Connection
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			d := r2.Norm(r2.Sub(nodes[i].Pos, nodes[j].Pos))
			if d < radius {
				out = append(out, Connection{From: i, To: j, Strength: 1 - d/radius})
			}
		}
	}
	return out
}

// node drawing constants
const (
	pulseAmplitude = 2.0
	nodeAlpha      = 0.8
	glowAlpha      = 0.3
	edgeAlpha      = 0.3
	edgeWidth      = 2.0
)

// NeuralNetwork draws moving nodes joined by edges fixed at build time
type NeuralNetwork struct {
	surface *canvas.Surface
	canvas  *canvas.Canvas
	rng     *rand.Rand
	log     zerolog.Logger

	opts  NetworkOptions
	color canvas.RGB

	nodes       []Node
	connections []Connection

	subs      []*hub.Subscription
	loop      frameLoop
	destroyed bool
}

// NewNeuralNetwork mounts a network canvas on container, builds the graph and starts its loop
func NewNeuralNetwork(container *canvas.Surface, host Host, opts NetworkOptions) (*NeuralNetwork, error) {
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

	nn := &NeuralNetwork{
		surface: container,
		canvas:  container.NewCanvas(o.Opacity),
		rng:     host.rng(),
		log:     host.logger("network"),
		opts:    o,
		color:   color,
	}
	nn.loop = newFrameLoop(host.Scheduler, nn.step, nn.log)
	nn.build()

	if sub := host.subscribe(hub.KindResize, nn.onResize); sub != nil {
		nn.subs = append(nn.subs, sub)
	}

	nn.loop.start()
	nn.log.Debug().Int("nodes", len(nn.nodes)).Int("connections", len(nn.connections)).Msg("neural network mounted")
	return nn, nil
}

// build scatters nodes and recomputes the whole connection set
func (nn *NeuralNetwork) build() {
	w, h := nn.canvas.Size()
	r := nn.rng
	nn.nodes = make([]Node, nn.opts.Nodes)
	for i := range nn.nodes {
		nn.nodes[i] = Node{
			Pos:   r2.Vec{X: r.Float64() * w, Y: r.Float64() * h},
			Vel:   r2.Vec{X: (r.Float64() - 0.5) * nn.opts.Speed, Y: (r.Float64() - 0.5) * nn.opts.Speed},
			Size:  r.Float64()*3 + 1,
			Pulse: r.Float64() * math.Pi * 2,
		}
	}
	nn.connections = Connect(nn.nodes, nn.opts.Radius)
}

func (nn *NeuralNetwork) step() error {
	c := nn.canvas
	if err := c.Clear(); err != nil {
		return err
	}
	w, h := c.Size()

	for _, conn := range nn.connections {
		a, b := nn.nodes[conn.From].Pos, nn.nodes[conn.To].Pos
		st := canvas.Stroke{
			Color: nn.color,
			Alpha: conn.Strength * edgeAlpha,
			Width: conn.Strength * edgeWidth,
		}
		if err := c.StrokeLine(a.X, a.Y, b.X, b.Y, st); err != nil {
			return err
		}
	}

	for i := range nn.nodes {
		n := &nn.nodes[i]
		n.Pos.X, n.Vel.X = bounce(n.Pos.X, n.Vel.X, w)
		n.Pos.Y, n.Vel.Y = bounce(n.Pos.Y, n.Vel.Y, h)
		n.Pulse += nn.opts.PulseStep

		radius := pulseRadius(n.Size, n.Pulse)
		// Halo first so the solid core glyph stays on top
		if err := c.FillCircle(n.Pos.X, n.Pos.Y, radius*2, nn.color, glowAlpha); err != nil {
			return err
		}
		if err := c.FillCircle(n.Pos.X, n.Pos.Y, radius, nn.color, nodeAlpha); err != nil {
			return err
		}
	}
	return nil
}

// pulseRadius oscillates around the base size, never below zero
func pulseRadius(size, pulse float64) float64 {
	return math.Max(0, size+math.Sin(pulse)*pulseAmplitude)
}

func (nn *NeuralNetwork) onResize(hub.Event) {
	if nn.canvas.Attached() {
		nn.build()
	}
}

// SetNodeCount rebuilds the graph with n nodes
func (nn *NeuralNetwork) SetNodeCount(n int) {
	if n <= 0 || nn.destroyed {
		return
	}
	nn.opts.Nodes = n
	nn.build()
}

// Nodes returns a snapshot of node state
func (nn *NeuralNetwork) Nodes() []Node {
	out := make([]Node, len(nn.nodes))
	copy(out, nn.nodes)
	return out
}

// Connections returns a snapshot of the connection set
func (nn *NeuralNetwork) Connections() []Connection {
	out := make([]Connection, len(nn.connections))
	copy(out, nn.connections)
	return out
}

// Canvas exposes the canvas the network draws into
func (nn *NeuralNetwork) Canvas() *canvas.Canvas {
	return nn.canvas
}

// Running reports whether the frame loop is active
func (nn *NeuralNetwork) Running() bool {
	return nn.loop.running
}

// Err returns the error that stopped the loop, if any
func (nn *NeuralNetwork) Err() error {
	return nn.loop.err
}

// Destroy stops the loop and detaches the canvas, idempotent
func (nn *NeuralNetwork) Destroy() {
	if nn.destroyed {
		return
	}
	nn.destroyed = true
	nn.loop.stop()
	for _, s := range nn.subs {
		s.Unsubscribe()
	}
	nn.subs = nil
	nn.canvas.Detach()
	nn.log.Debug().Msg("neural network destroyed")
}
