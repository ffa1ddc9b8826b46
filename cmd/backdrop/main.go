package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"

	"github.com/lixenwraith/backdrop/canvas"
	"github.com/lixenwraith/backdrop/config"
	"github.com/lixenwraith/backdrop/core"
	"github.com/lixenwraith/backdrop/effect"
	"github.com/lixenwraith/backdrop/hub"
	"github.com/lixenwraith/backdrop/logging"
	"github.com/lixenwraith/backdrop/scene"
	"github.com/lixenwraith/backdrop/scheduler"
	"github.com/lixenwraith/backdrop/sound"
)

var (
	configFlag = flag.String("config", "", "YAML config file")
	envFlag    = flag.String("env", "", "env file loaded before BACKDROP_* overrides (default ./.env if present)")
	debugFlag  = flag.Bool("debug", false, "debug logging to the configured log file")
	sceneFlag  = flag.String("scene", "", "scene shown first")
	seedFlag   = flag.Int64("seed", 0, "random seed, 0 seeds from the clock")
)

func main() {
	// Terminal must be restored before the trace is printed
	defer func() { core.HandleCrash(recover()) }()

	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "backdrop: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var envFiles []string
	if *envFlag != "" {
		envFiles = append(envFiles, *envFlag)
	}
	cfg, err := config.Load(*configFlag, envFiles...)
	if err != nil {
		return errors.Wrap(err, "config")
	}
	if *debugFlag {
		cfg.Log.Enabled = true
		cfg.Log.Level = "debug"
	}
	if *sceneFlag != "" {
		if _, ok := cfg.Scene(*sceneFlag); !ok {
			return errors.Errorf("unknown scene %q", *sceneFlag)
		}
		cfg.Scenes.Start = *sceneFlag
	}

	log, logFile := logging.New(cfg.Log)
	defer logFile.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return errors.Wrap(err, "create screen")
	}
	if err := screen.Init(); err != nil {
		return errors.Wrap(err, "init screen")
	}
	defer screen.Fini()
	core.SetRestore(screen.Fini)

	bg := canvas.MustHex(cfg.Render.Background)
	screen.SetStyle(tcell.StyleDefault.Background(tcell.NewRGBColor(int32(bg.R), int32(bg.G), int32(bg.B))))
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()

	cols, rows := screen.Size()
	surface := canvas.NewSurface(cols, rows, cfg.Render.CellWidth, cfg.Render.CellHeight, bg)
	presenter := canvas.NewPresenter(screen)

	chimes := sound.New(cfg.Sound.Volume, log)
	if cfg.Sound.Enabled {
		if err := chimes.Init(); err != nil {
			log.Warn().Err(err).Msg("audio unavailable, continuing silent")
		}
	}
	defer chimes.Close()

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	loop := scheduler.NewLoop(cfg.Render.FPS, nil)
	events := hub.New()
	host := effect.Host{
		Scheduler: loop,
		Events:    events,
		Rand:      rand.New(rand.NewSource(seed)),
		Log:       &log,
	}

	director, err := newDirector(cfg, surface, host, chimes)
	if err != nil {
		return err
	}
	defer director.Close()

	start := cfg.Scenes.Start
	if start == "" {
		start = cfg.Scenes.List[0].Name
	}
	if err := director.Show(start); err != nil {
		return err
	}
	if cfg.Scenes.Rotate != "" {
		if err := director.StartRotation(cfg.Scenes.Rotate, loop); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &app{
		surface:  surface,
		events:   events,
		director: director,
		chimes:   chimes,
		log:      log,
		quit:     cancel,
	}
	loop.AfterFrame(func(time.Time) {
		presenter.Present(surface.Compose())
	})

	core.Go(func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			loop.Post(func() { a.handle(ev) })
		}
	})

	log.Info().
		Int("cols", cols).
		Int("rows", rows).
		Int("fps", cfg.Render.FPS).
		Int64("seed", seed).
		Str("background", bg.Hex()).
		Str("scene", start).
		Msg("backdrop started")

	err = loop.Run(ctx)
	stats := loop.Stats()
	log.Info().Uint64("frames", stats.Frames).Uint64("callbacks", stats.Callbacks).Msg("backdrop stopped")
	return err
}

// newDirector wires config sections into engine factories and scenes
func newDirector(cfg *config.Config, surface *canvas.Surface, host effect.Host, chimes *sound.Chimes) (*scene.Director, error) {
	particles, err := cfg.ParticleOptions()
	if err != nil {
		return nil, errors.Wrap(err, "particles")
	}
	factories := scene.Factories(scene.EffectOptions{
		Particles: particles,
		Rain:      cfg.Rain.Options(),
		Network:   cfg.Network.Options(),
	})

	scenes := make([]scene.Scene, len(cfg.Scenes.List))
	for i, s := range cfg.Scenes.List {
		scenes[i] = scene.Scene{Name: s.Name, Effects: s.Effects}
	}
	return scene.NewDirector(surface, host, factories, scenes, chimes)
}
