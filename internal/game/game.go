// Package game runs the particle field in a desktop window with ebiten.
package game

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/iburimskiy/particle-field/internal/audio"
	"github.com/iburimskiy/particle-field/internal/config"
	"github.com/iburimskiy/particle-field/internal/engine"
	"github.com/iburimskiy/particle-field/internal/input"
	"github.com/iburimskiy/particle-field/internal/particle"
	"github.com/iburimskiy/particle-field/internal/telemetry"
	"github.com/iburimskiy/particle-field/internal/theme"
)

const (
	// pixels scrolled per wheel notch
	scrollStep = 40
	// fraction of the remaining fade covered per frame
	panelFade = 0.15
)

var (
	darkBackground  = color.RGBA{R: 12, G: 14, B: 22, A: 255}
	lightBackground = color.RGBA{R: 244, G: 244, B: 246, A: 255}
)

// frameSurface keeps the draw commands of the latest tick until ebiten asks
// for the frame to be painted.
type frameSurface struct {
	cmds []particle.DrawCommand
}

func (s *frameSurface) Draw(cmds []particle.DrawCommand) {
	s.cmds = append(s.cmds[:0], cmds...)
}

// Options configures a windowed run.
type Options struct {
	Binder     audio.Binder
	Preference theme.Preference
	Recorder   *telemetry.Recorder
	Log        *slog.Logger
}

type Game struct {
	engine  *engine.Engine
	surface *frameSurface
	faces   *faceCache
	widgets panelLayout
	log     *slog.Logger

	width, height int
	title         string

	// pointer tracking
	pointerInside bool
	lastX, lastY  int
	scroll        float64

	// input edge detection
	prevKey map[ebiten.Key]bool

	// panel
	panelAlpha float64
	dragging   widget
}

// New builds the engine behind a window surface.
func New(cfg *config.Config, opts Options) (*Game, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("loading glyph font: %w", err)
	}
	logger := opts.Log
	if logger == nil {
		logger = slog.Default()
	}

	g := &Game{
		surface: &frameSurface{},
		faces:   newFaceCache(src),
		log:     logger,
		width:   cfg.Window.Width,
		height:  cfg.Window.Height,
		title:   cfg.Window.Title,
		prevKey: map[ebiten.Key]bool{},
	}
	g.engine, err = engine.New(cfg, engine.Options{
		Surface:    g.surface,
		Binder:     opts.Binder,
		Preference: opts.Preference,
		Viewport:   particle.Viewport{Width: float64(g.width), Height: float64(g.height)},
		Recorder:   opts.Recorder,
		Log:        logger,
	})
	if err != nil {
		return nil, err
	}
	g.widgets = layoutPanel(g.width, g.height)
	return g, nil
}

// Run opens the window and blocks until it is closed.
func (g *Game) Run() error {
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle(g.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g.engine.Init(time.Now())
	defer g.engine.Dispose()

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

func (g *Game) Update() error {
	justPressed := func(k ebiten.Key) bool {
		pressed := ebiten.IsKeyPressed(k)
		jp := pressed && !g.prevKey[k]
		g.prevKey[k] = pressed
		return jp
	}

	bus := g.engine.Bus()
	g.pumpPointer(bus)
	g.pumpWheel(bus)

	if justPressed(ebiten.KeyT) {
		bus.Publish(input.Event{Kind: input.ThemeChange, Dark: g.engine.Theme().Preference() != theme.Dark})
	}
	if justPressed(ebiten.KeySpace) {
		g.engine.Panel().Toggle()
	}
	if justPressed(ebiten.KeyEscape) || justPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	g.engine.Tick(time.Now())

	target := 0.0
	if g.engine.PanelState().Visible {
		target = 0.9
	}
	g.panelAlpha += (target - g.panelAlpha) * panelFade
	return nil
}

func (g *Game) pumpPointer(bus *input.Bus) {
	x, y := ebiten.CursorPosition()
	inside := ebiten.IsFocused() && x >= 0 && y >= 0 && x < g.width && y < g.height

	switch {
	case inside && (!g.pointerInside || x != g.lastX || y != g.lastY):
		bus.Publish(input.Event{Kind: input.PointerMove, X: float64(x), Y: float64(y)})
	case !inside && g.pointerInside:
		bus.Publish(input.Event{Kind: input.PointerLeave})
	}
	g.pointerInside, g.lastX, g.lastY = inside, x, y

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if st := g.engine.PanelState(); st.Visible {
			g.dragging = g.widgets.hit(x, y, st.ShowSliders)
			if g.dragging == widgetToggle {
				g.engine.Panel().Toggle()
				g.dragging = widgetNone
			}
		}
		bus.Publish(input.Event{Kind: input.Click, X: float64(x), Y: float64(y)})
	}
	if g.dragging != widgetNone {
		if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
			g.dragging = widgetNone
			return
		}
		g.applySlider(g.dragging, x)
	}
}

func (g *Game) pumpWheel(bus *input.Bus) {
	_, dy := ebiten.Wheel()
	if dy == 0 {
		return
	}
	g.scroll = math.Max(0, g.scroll-dy*scrollStep)
	bus.Publish(input.Event{Kind: input.Scroll, Offset: g.scroll})
}

func (g *Game) applySlider(w widget, x int) {
	r := g.widgets.rect(w)
	pos := clamp01(float64(x-r.Min.X) / float64(r.Dx()))
	switch w {
	case widgetSensitivity:
		g.engine.Panel().SetSensitivity(pos * 2)
	case widgetVolume:
		g.engine.Panel().SetVolume(pos)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	bg := lightBackground
	if g.engine.Theme().Preference() == theme.Dark {
		bg = darkBackground
	}
	screen.Fill(bg)

	for _, cmd := range g.surface.cmds {
		face := g.faces.get(cmd.Size)
		op := &text.DrawOptions{}
		op.GeoM.Translate(cmd.X, cmd.Y)
		op.ColorScale.ScaleWithColor(cmd.Color)
		op.ColorScale.ScaleAlpha(float32(cmd.Opacity))
		text.Draw(screen, cmd.Symbol, face, op)
	}

	if g.panelAlpha > 0.01 {
		g.drawPanel(screen, g.engine.PanelState(), g.panelAlpha)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.widgets = layoutPanel(g.width, g.height)
		g.engine.Bus().Publish(input.Event{Kind: input.Resize, Width: float64(g.width), Height: float64(g.height)})
	}
	return g.width, g.height
}

// faceCache shares one face per integer glyph size.
type faceCache struct {
	source *text.GoTextFaceSource
	faces  map[int]*text.GoTextFace
}

func newFaceCache(src *text.GoTextFaceSource) *faceCache {
	return &faceCache{source: src, faces: map[int]*text.GoTextFace{}}
}

func (c *faceCache) get(size float64) *text.GoTextFace {
	key := int(math.Round(size))
	if f, ok := c.faces[key]; ok {
		return f
	}
	f := &text.GoTextFace{Source: c.source, Size: float64(key)}
	c.faces[key] = f
	return f
}
