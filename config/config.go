// Package config loads backdrop settings: built-in defaults, then an optional YAML file, then
// BACKDROP_* environment variables (a .env file is read first when present).
package config

import (
	"bytes"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/backdrop/canvas"
	"github.com/lixenwraith/backdrop/effect"
	"github.com/lixenwraith/backdrop/logging"
)

// Effect names accepted in scene lists
const (
	EffectParticles = "particles"
	EffectRain      = "rain"
	EffectNetwork   = "network"
)

// KnownEffects lists every effect a scene may name
var KnownEffects = []string{EffectParticles, EffectRain, EffectNetwork}

// EnvPrefix prefixes every environment override
const EnvPrefix = "BACKDROP_"

// Config is the full application configuration
type Config struct {
	Render    RenderConfig   `yaml:"render"`
	Log       logging.Config `yaml:"log"`
	Sound     SoundConfig    `yaml:"sound"`
	Scenes    ScenesConfig   `yaml:"scenes"`
	Particles map[string]any `yaml:"particles"`
	Rain      RainConfig     `yaml:"rain"`
	Network   NetworkConfig  `yaml:"network"`
}

// RenderConfig drives the frame loop and the terminal surface
type RenderConfig struct {
	FPS        int     `yaml:"fps"`
	CellWidth  float64 `yaml:"cell_width"`
	CellHeight float64 `yaml:"cell_height"`
	Background string  `yaml:"background"`
}

// SoundConfig toggles audio cues
type SoundConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"` // gain in halvings, 0 is unchanged, negative is quieter
}

// SceneConfig names a set of effects shown together
type SceneConfig struct {
	Name    string   `yaml:"name"`
	Effects []string `yaml:"effects"`
}

// ScenesConfig lists scenes and how they rotate
type ScenesConfig struct {
	Start  string        `yaml:"start"`  // first scene, empty for the first listed
	Rotate string        `yaml:"rotate"` // cron spec, empty disables rotation
	List   []SceneConfig `yaml:"list"`
}

// RainConfig mirrors effect.RainOptions, zero values keep the engine defaults
type RainConfig struct {
	Glyphs      string  `yaml:"glyphs"`
	Color       string  `yaml:"color"`
	Wash        string  `yaml:"wash"`
	WashAlpha   float64 `yaml:"wash_alpha"`
	ColumnWidth float64 `yaml:"column_width"`
	Step        float64 `yaml:"step"`
	ResetChance float64 `yaml:"reset_chance"`
	Opacity     float64 `yaml:"opacity"`
}

// NetworkConfig mirrors effect.NetworkOptions, zero values keep the engine defaults
type NetworkConfig struct {
	Nodes     int     `yaml:"nodes"`
	Radius    float64 `yaml:"radius"`
	Speed     float64 `yaml:"speed"`
	PulseStep float64 `yaml:"pulse_step"`
	Color     string  `yaml:"color"`
	Opacity   float64 `yaml:"opacity"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			FPS:        60,
			CellWidth:  canvas.DefaultCellWidth,
			CellHeight: canvas.DefaultCellHeight,
			Background: "#0a0a0f",
		},
		Log: logging.DefaultConfig(),
		Scenes: ScenesConfig{
			List: []SceneConfig{
				{Name: "all", Effects: []string{EffectRain, EffectNetwork, EffectParticles}},
				{Name: "field", Effects: []string{EffectNetwork, EffectParticles}},
				{Name: "rain", Effects: []string{EffectRain}},
			},
		},
		Particles: map[string]any{},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped when empty) and the
// environment. envFiles are passed to godotenv; with none, ./.env is tried and may be absent.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := cfg.decode(data); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	}

	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, errors.Wrap(err, "load env file")
		}
	} else {
		_ = godotenv.Load()
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays YAML onto the current values, unknown keys are rejected
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides fields from BACKDROP_* variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("FPS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%sFPS", EnvPrefix)
		}
		c.Render.FPS = n
	}
	if v, ok := get("BACKGROUND"); ok {
		c.Render.Background = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_FILE"); ok {
		c.Log.File = v
		c.Log.Enabled = true
	}
	if v, ok := get("SOUND"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "%sSOUND", EnvPrefix)
		}
		c.Sound.Enabled = b
	}
	if v, ok := get("SCENE"); ok {
		c.Scenes.Start = v
	}
	if v, ok := get("ROTATE"); ok {
		c.Scenes.Rotate = v
	}
	if v, ok := get("PARTICLE_COUNT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%sPARTICLE_COUNT", EnvPrefix)
		}
		if c.Particles == nil {
			c.Particles = map[string]any{}
		}
		c.Particles["count"] = n
	}
	return nil
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	if c.Render.FPS <= 0 {
		return errors.Errorf("render.fps must be positive, got %d", c.Render.FPS)
	}
	if c.Render.CellWidth <= 0 || c.Render.CellHeight <= 0 {
		return errors.Errorf("render cell size must be positive, got %vx%v", c.Render.CellWidth, c.Render.CellHeight)
	}
	if _, err := canvas.ParseHex(c.Render.Background); err != nil {
		return errors.Wrap(err, "render.background")
	}

	if len(c.Scenes.List) == 0 {
		return errors.New("scenes.list is empty")
	}
	seen := make(map[string]bool, len(c.Scenes.List))
	for i, s := range c.Scenes.List {
		if s.Name == "" {
			return errors.Errorf("scenes.list[%d] has no name", i)
		}
		if seen[s.Name] {
			return errors.Errorf("scene %q defined twice", s.Name)
		}
		seen[s.Name] = true
		for _, e := range s.Effects {
			if !slices.Contains(KnownEffects, e) {
				return errors.Errorf("scene %q: unknown effect %q", s.Name, e)
			}
		}
	}
	if c.Scenes.Start != "" && !seen[c.Scenes.Start] {
		return errors.Errorf("scenes.start %q is not a listed scene", c.Scenes.Start)
	}
	if c.Scenes.Rotate != "" {
		if _, err := cron.ParseStandard(c.Scenes.Rotate); err != nil {
			return errors.Wrap(err, "scenes.rotate")
		}
	}

	if _, err := c.ParticleOptions(); err != nil {
		return errors.Wrap(err, "particles")
	}
	if err := c.Rain.Options().Validate(); err != nil {
		return errors.Wrap(err, "rain")
	}
	if err := c.Network.Options().Validate(); err != nil {
		return errors.Wrap(err, "network")
	}
	return nil
}

// Scene returns the named scene
func (c *Config) Scene(name string) (SceneConfig, bool) {
	for _, s := range c.Scenes.List {
		if s.Name == name {
			return s, true
		}
	}
	return SceneConfig{}, false
}

// ParticleOptions converts the raw particles section
func (c *Config) ParticleOptions() ([]effect.ParticleOption, error) {
	return effect.ParseParticleOptions(c.Particles)
}

// Options converts to engine options
func (r RainConfig) Options() effect.RainOptions {
	return effect.RainOptions{
		Glyphs:      r.Glyphs,
		Color:       r.Color,
		Wash:        r.Wash,
		WashAlpha:   r.WashAlpha,
		ColumnWidth: r.ColumnWidth,
		Step:        r.Step,
		ResetChance: r.ResetChance,
		Opacity:     r.Opacity,
	}
}

// Options converts to engine options
func (n NetworkConfig) Options() effect.NetworkOptions {
	return effect.NetworkOptions{
		Nodes:     n.Nodes,
		Radius:    n.Radius,
		Speed:     n.Speed,
		PulseStep: n.PulseStep,
		Color:     n.Color,
		Opacity:   n.Opacity,
	}
}
