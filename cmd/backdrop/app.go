package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/backdrop/canvas"
	"github.com/lixenwraith/backdrop/effect"
	"github.com/lixenwraith/backdrop/hub"
	"github.com/lixenwraith/backdrop/scene"
	"github.com/lixenwraith/backdrop/sound"
)

// effect toggled by each digit key
var digitEffects = map[rune]string{
	'1': "particles",
	'2': "rain",
	'3': "network",
}

// app routes terminal input into the surface, event hub and director
// Every method runs on the loop goroutine
type app struct {
	surface  *canvas.Surface
	events   *hub.Hub
	director *scene.Director
	chimes   *sound.Chimes
	log      zerolog.Logger
	quit     func()

	button bool // primary button held, clicks fire on press only
}

// handle decodes one terminal event, returns false when the app should exit
func (a *app) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		r := rune(0)
		if ev.Key() == tcell.KeyRune {
			r = ev.Rune()
		}
		return a.key(ev.Key(), r)
	case *tcell.EventMouse:
		x, y := ev.Position()
		a.mouse(x, y, ev.Buttons())
	case *tcell.EventResize:
		cols, rows := ev.Size()
		a.resize(cols, rows)
	}
	return true
}

func (a *app) key(k tcell.Key, r rune) bool {
	switch k {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		a.quit()
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	switch r {
	case 'q':
		a.quit()
		return false
	case '+', '=':
		if ps := a.particles(); ps != nil {
			ps.AddParticle()
			a.chimes.Play(sound.CueAdd)
		}
	case '-', '_':
		if ps := a.particles(); ps != nil && ps.RemoveParticles(1) > 0 {
			a.chimes.Play(sound.CueRemove)
		}
	case 'i':
		if ps := a.particles(); ps != nil {
			on := !ps.Options().Interactive
			if err := ps.UpdateOptions(effect.WithInteractive(on)); err != nil {
				a.log.Warn().Err(err).Msg("toggle interactive")
			}
		}
	case 'n':
		if err := a.director.Next(); err != nil {
			a.log.Error().Err(err).Msg("next scene")
		}
	default:
		if name, ok := digitEffects[r]; ok {
			on, err := a.director.Toggle(name)
			if err != nil {
				a.log.Error().Err(err).Str("effect", name).Msg("toggle effect")
				break
			}
			a.log.Debug().Str("effect", name).Bool("mounted", on).Msg("effect toggled")
		}
	}
	return true
}

// mouse publishes the pointer in surface units and turns a fresh primary press into a click
func (a *app) mouse(cx, cy int, buttons tcell.ButtonMask) {
	x, y := a.surface.Viewport().CellCenter(cx, cy)
	a.events.Publish(hub.PointerMove{X: x, Y: y})

	pressed := buttons&tcell.Button1 != 0
	if pressed && !a.button {
		a.events.Publish(hub.Click{X: x, Y: y})
		if a.particles() != nil {
			a.chimes.Play(sound.CueAdd)
		}
	}
	a.button = pressed
}

// resize grows the surface before engines hear about it, so they read the new bounds
func (a *app) resize(cols, rows int) {
	a.surface.Resize(cols, rows)
	w, h := a.surface.Size()
	a.events.Publish(hub.Resize{Width: w, Height: h})
	a.log.Debug().Int("cols", cols).Int("rows", rows).Msg("resized")
}

func (a *app) particles() *effect.ParticleSystem {
	e, ok := a.director.Engine("particles")
	if !ok {
		return nil
	}
	ps, _ := e.(*effect.ParticleSystem)
	return ps
}
