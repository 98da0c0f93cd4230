// Package engine owns every component of the particle field and runs one
// animation step per display frame.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/iburimskiy/particle-field/internal/audio"
	"github.com/iburimskiy/particle-field/internal/config"
	"github.com/iburimskiy/particle-field/internal/input"
	"github.com/iburimskiy/particle-field/internal/noise"
	"github.com/iburimskiy/particle-field/internal/panel"
	"github.com/iburimskiy/particle-field/internal/particle"
	"github.com/iburimskiy/particle-field/internal/telemetry"
	"github.com/iburimskiy/particle-field/internal/theme"
)

// Surface receives the draw commands of each frame.
type Surface interface {
	Draw(cmds []particle.DrawCommand)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(cmds []particle.DrawCommand)

// Draw calls f.
func (f SurfaceFunc) Draw(cmds []particle.DrawCommand) { f(cmds) }

// Options carries the collaborators of an Engine.
type Options struct {
	Surface    Surface
	Binder     audio.Binder
	Field      noise.Field // nil selects the configured field
	Preference theme.Preference
	Viewport   particle.Viewport
	Rand       *rand.Rand
	Recorder   *telemetry.Recorder
	Log        *slog.Logger
	Clock      func() time.Time // stamps activity events; nil uses time.Now
}

// Engine holds all component state for one session.
type Engine struct {
	cfg     *config.Config
	log     *slog.Logger
	surface Surface
	rng     *rand.Rand
	clock   func() time.Time

	bus     *input.Bus
	inputs  *input.Inputs
	tracker *audio.Tracker
	theme   *theme.Controller
	panel   *panel.Panel
	system  *particle.System
	trace   *telemetry.Recorder

	// mu serialises the frame step with recoloring and panel activity
	mu       sync.Mutex
	start    time.Time
	frame    int64
	cmds     []particle.DrawCommand
	cancels  []func()
	running  bool
	disposed bool
}

// New wires an engine from cfg. A nil Surface or Binder is a caller bug.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	if opts.Surface == nil {
		panic("engine: nil render surface")
	}
	if opts.Binder == nil {
		panic("engine: nil audio binder")
	}
	logger := opts.Log
	if logger == nil {
		logger = slog.Default()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	dark, err := theme.ParsePalette(cfg.Theme.Dark)
	if err != nil {
		return nil, fmt.Errorf("dark palette: %w", err)
	}
	light, err := theme.ParsePalette(cfg.Theme.Light)
	if err != nil {
		return nil, fmt.Errorf("light palette: %w", err)
	}

	field := opts.Field
	if field == nil {
		field, err = noise.New(cfg.Noise.Kind, cfg.Noise.Seed)
		if err != nil {
			return nil, err
		}
	}

	tracker := audio.NewTracker(opts.Binder, audio.TrackerOptions{
		Smoothing:      cfg.Tuning.SmoothingFactor,
		BassBins:       cfg.Tuning.BassBins,
		SampleInterval: cfg.Audio.SampleInterval,
		Volume:         cfg.Audio.Volume,
		Sensitivity:    cfg.Audio.Sensitivity,
		Log:            logger.With("component", "audio"),
	})

	themes := theme.NewController(dark, light, logger.With("component", "theme"))
	palette := themes.ResolveInitial(opts.Preference)

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	vp := opts.Viewport
	particles := particle.Create(cfg.Particles.Count, cfg.Particles.Symbols, palette, vp, cfg.Particles, rng)

	return &Engine{
		cfg:     cfg,
		log:     logger,
		surface: opts.Surface,
		rng:     rng,
		clock:   clock,
		bus:     input.NewBus(),
		inputs:  input.New(vp, 0),
		tracker: tracker,
		theme:   themes,
		panel:   panel.New(tracker, cfg.Panel.IdleTimeout),
		system:  particle.NewSystem(particles, field, cfg.Tuning),
		trace:   opts.Recorder,
		cmds:    make([]particle.DrawCommand, 0, len(particles)),
	}, nil
}

// Bus is where frontends publish input events.
func (e *Engine) Bus() *input.Bus { return e.bus }

// Panel returns the control panel.
func (e *Engine) Panel() *panel.Panel { return e.panel }

// Tracker returns the audio energy tracker.
func (e *Engine) Tracker() *audio.Tracker { return e.tracker }

// Theme returns the theme controller.
func (e *Engine) Theme() *theme.Controller { return e.theme }

// Inputs returns the interaction inputs.
func (e *Engine) Inputs() *input.Inputs { return e.inputs }

// Particles returns a copy of the population.
func (e *Engine) Particles() []particle.Particle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]particle.Particle(nil), e.system.Particles()...)
}

// Init subscribes the components to the input bus and starts the clock.
func (e *Engine) Init(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running || e.disposed {
		return
	}
	e.running = true
	e.start = now

	e.cancels = append(e.cancels,
		e.inputs.Bind(e.bus),
		e.bus.Subscribe(input.Gesture, func(input.Event) { e.tracker.Gesture() }),
		e.bus.Subscribe(input.PointerMove, e.activity),
		e.bus.Subscribe(input.Click, e.activity),
		e.bus.Subscribe(input.ThemeChange, func(ev input.Event) {
			pref := theme.Light
			if ev.Dark {
				pref = theme.Dark
			}
			e.theme.Change(pref)
		}),
		e.theme.OnChange(e.recolor),
	)
	if e.cfg.Panel.InitialReveal > 0 {
		e.panel.RevealAt(now.Add(e.cfg.Panel.InitialReveal))
	}
	e.log.Info("engine started", "particles", e.system.Len(), "preference", e.theme.Preference().String())
}

// Tick runs one frame: it advances the simulation with the current inputs,
// energy and palette, then hands the commands to the surface. The returned
// slice is reused by the next Tick.
func (e *Engine) Tick(now time.Time) []particle.DrawCommand {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return nil
	}

	elapsed := now.Sub(e.start)
	e.frame++

	snap := e.inputs.Frame()
	f := particle.Frame{
		T:           float64(elapsed.Milliseconds()) * e.cfg.Tuning.TimeScale,
		Energy:      e.tracker.Energy(),
		Sensitivity: e.tracker.Sensitivity(),
		Pointer:     snap.Pointer,
		ScrollDelta: snap.ScrollDelta,
		Viewport:    snap.Viewport,
	}
	e.cmds = e.system.AppendUpdate(e.cmds[:0], f)
	e.panel.Update(now)
	e.surface.Draw(e.cmds)

	if e.trace != nil {
		e.record(elapsed, f)
	}
	return e.cmds
}

// Dispose stops the frame loop, releases the audio source and flushes the
// trace. The engine cannot be restarted.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	e.running = false
	cancels := e.cancels
	e.cancels = nil
	e.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	e.tracker.Dispose()
	if err := e.trace.Close(); err != nil {
		e.log.Warn("closing telemetry", "error", err)
	}
	e.log.Info("engine stopped", "frames", e.frame)
}

// PanelState describes the control panel for drawing.
func (e *Engine) PanelState() panel.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.panel.State()
}

func (e *Engine) activity(input.Event) {
	e.mu.Lock()
	e.panel.Activity(e.clock())
	e.mu.Unlock()
}

func (e *Engine) recolor(pref theme.Preference, p theme.Palette) {
	e.mu.Lock()
	e.system.Recolor(p, e.rng)
	e.mu.Unlock()
}

func (e *Engine) record(elapsed time.Duration, f particle.Frame) {
	near := 0
	for _, c := range e.cmds {
		if c.Opacity == e.cfg.Tuning.NearOpacity {
			near++
		}
	}
	err := e.trace.Record(telemetry.FrameRecord{
		Frame:       e.frame,
		ElapsedMs:   float64(elapsed.Microseconds()) / 1000,
		Energy:      f.Energy,
		Sensitivity: f.Sensitivity,
		Pointer:     f.Pointer.Present,
		ScrollDelta: f.ScrollDelta,
		Width:       f.Viewport.Width,
		Height:      f.Viewport.Height,
		Particles:   len(e.cmds),
		NearPointer: near,
		Audio:       e.tracker.Phase().String(),
		Panel:       e.panel.Visibility().String(),
	})
	if err != nil {
		e.log.Warn("telemetry write failed", "error", err)
	}
}
