// Package term runs the particle field in a terminal with tcell. Each cell
// stands for a fixed block of surface units so the motion constants keep
// their pixel meaning.
package term

import (
	"fmt"
	"image/color"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/iburimskiy/particle-field/internal/audio"
	"github.com/iburimskiy/particle-field/internal/config"
	"github.com/iburimskiy/particle-field/internal/engine"
	"github.com/iburimskiy/particle-field/internal/input"
	"github.com/iburimskiy/particle-field/internal/panel"
	"github.com/iburimskiy/particle-field/internal/particle"
	"github.com/iburimskiy/particle-field/internal/telemetry"
	"github.com/iburimskiy/particle-field/internal/theme"
)

// Surface units covered by one terminal cell.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

const (
	frameInterval = 16 * time.Millisecond
	scrollStep    = 40
	controlStep   = 0.05
)

var (
	darkBackground  = color.RGBA{R: 12, G: 14, B: 22, A: 255}
	lightBackground = color.RGBA{R: 244, G: 244, B: 246, A: 255}
)

// Options configures a terminal run.
type Options struct {
	Binder     audio.Binder
	Preference theme.Preference
	Recorder   *telemetry.Recorder
	Log        *slog.Logger
}

// Terminal owns a tcell screen and the engine drawing into it.
type Terminal struct {
	screen tcell.Screen
	engine *engine.Engine
	cmds   []particle.DrawCommand
	cols   int
	rows   int

	mouseX, mouseY int
	mouseInside    bool
	buttonDown     bool
	scroll         float64
}

// New builds the engine on an initialised screen.
func New(cfg *config.Config, screen tcell.Screen, opts Options) (*Terminal, error) {
	t := &Terminal{screen: screen, mouseX: -1, mouseY: -1}
	t.cols, t.rows = screen.Size()

	var err error
	t.engine, err = engine.New(cfg, engine.Options{
		Surface:    engine.SurfaceFunc(t.keep),
		Binder:     opts.Binder,
		Preference: opts.Preference,
		Viewport:   t.viewport(),
		Recorder:   opts.Recorder,
		Log:        opts.Log,
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Engine returns the engine behind the terminal.
func (t *Terminal) Engine() *engine.Engine { return t.engine }

// Run drives frames until the user quits. Input is read on a separate
// goroutine and handled on the frame goroutine.
func (t *Terminal) Run() error {
	t.screen.EnableMouse(tcell.MouseMotionEvents)
	t.screen.EnableFocus()
	t.screen.HideCursor()

	t.engine.Init(time.Now())
	defer t.engine.Dispose()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	go t.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !t.handle(ev) {
				return nil
			}
		case now := <-ticker.C:
			t.engine.Tick(now)
			t.paint()
		}
	}
}

// handle translates one tcell event. It returns false when the user quits.
func (t *Terminal) handle(ev tcell.Event) bool {
	bus := t.engine.Bus()
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return t.handleKey(ev)

	case *tcell.EventMouse:
		x, y := ev.Position()
		if x != t.mouseX || y != t.mouseY || !t.mouseInside {
			t.mouseX, t.mouseY, t.mouseInside = x, y, true
			px, py := cellCenter(x, y)
			bus.Publish(input.Event{Kind: input.PointerMove, X: px, Y: py})
		}

		buttons := ev.Buttons()
		pressed := buttons&tcell.Button1 != 0
		if pressed && !t.buttonDown {
			px, py := cellCenter(x, y)
			bus.Publish(input.Event{Kind: input.Click, X: px, Y: py})
		}
		t.buttonDown = pressed

		switch {
		case buttons&tcell.WheelUp != 0:
			t.scrollBy(-scrollStep)
		case buttons&tcell.WheelDown != 0:
			t.scrollBy(scrollStep)
		}

	case *tcell.EventFocus:
		if !ev.Focused && t.mouseInside {
			t.mouseInside = false
			bus.Publish(input.Event{Kind: input.PointerLeave})
		}

	case *tcell.EventResize:
		t.screen.Sync()
		t.cols, t.rows = ev.Size()
		vp := t.viewport()
		bus.Publish(input.Event{Kind: input.Resize, Width: vp.Width, Height: vp.Height})
	}
	return true
}

func (t *Terminal) handleKey(ev *tcell.EventKey) bool {
	p := t.engine.Panel()
	tracker := t.engine.Tracker()
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		t.scrollBy(-scrollStep)
		return true
	case tcell.KeyDown:
		t.scrollBy(scrollStep)
		return true
	case tcell.KeyEnter:
		// keyboard stand-in for the unlocking click
		t.engine.Bus().Publish(input.Event{Kind: input.Gesture})
		return true
	case tcell.KeyRune:
	default:
		return true
	}

	switch ev.Rune() {
	case 'q':
		return false
	case 't':
		dark := t.engine.Theme().Preference() != theme.Dark
		t.engine.Bus().Publish(input.Event{Kind: input.ThemeChange, Dark: dark})
	case 'm':
		p.Toggle()
	case '+', '=':
		p.SetSensitivity(tracker.Sensitivity() + controlStep*panel.SensitivityMax)
	case '-':
		p.SetSensitivity(tracker.Sensitivity() - controlStep*panel.SensitivityMax)
	case ']':
		p.SetVolume(tracker.Volume() + controlStep)
	case '[':
		p.SetVolume(tracker.Volume() - controlStep)
	default:
		return true
	}
	// control keys count as panel activity, like a click would
	t.engine.Bus().Publish(input.Event{Kind: input.Click, X: -1, Y: -1})
	return true
}

func (t *Terminal) scrollBy(d float64) {
	t.scroll += d
	if t.scroll < 0 {
		t.scroll = 0
	}
	t.engine.Bus().Publish(input.Event{Kind: input.Scroll, Offset: t.scroll})
}

func (t *Terminal) viewport() particle.Viewport {
	return particle.Viewport{Width: float64(t.cols) * CellWidth, Height: float64(t.rows) * CellHeight}
}

// keep is the engine's render surface. Painting happens after the tick
// returns so the panel state can be read without holding the engine.
func (t *Terminal) keep(cmds []particle.DrawCommand) {
	t.cmds = append(t.cmds[:0], cmds...)
}

// paint redraws the whole screen from the last frame.
func (t *Terminal) paint() {
	bg := lightBackground
	if t.engine.Theme().Preference() == theme.Dark {
		bg = darkBackground
	}
	base := tcell.StyleDefault.Background(rgb(bg))
	t.screen.SetStyle(base)
	t.screen.Clear()

	for _, cmd := range t.cmds {
		col, row, ok := t.cellFor(cmd.X, cmd.Y)
		if !ok {
			continue
		}
		r, _ := utf8.DecodeRuneInString(cmd.Symbol)
		fg := blend(cmd.Color, bg, cmd.Opacity)
		t.screen.SetContent(col, row, r, nil, base.Foreground(rgb(fg)))
	}

	t.drawPanel(t.engine.PanelState(), base)
	t.screen.Show()
}

func (t *Terminal) drawPanel(st panel.State, style tcell.Style) {
	if !st.Visible {
		return
	}
	line := st.Icon
	if st.ShowSliders {
		line = fmt.Sprintf("%s  beat %.2f  vol %.2f", st.Icon, st.Sensitivity*panel.SensitivityMax, st.Volume)
	}
	// bottom-right, one row above the last
	row := t.rows - 2
	col := t.cols - utf8.RuneCountInString(line) - 2
	if row < 0 || col < 0 {
		return
	}
	for _, r := range line {
		t.screen.SetContent(col, row, r, nil, style.Bold(true))
		col++
	}
}

// cellFor maps a surface position to a visible cell.
func (t *Terminal) cellFor(x, y float64) (col, row int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row = int(x/CellWidth), int(y/CellHeight)
	return col, row, col < t.cols && row < t.rows
}

func cellCenter(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * CellWidth, (float64(row) + 0.5) * CellHeight
}

// blend mixes c over bg with the given opacity; terminal cells have no alpha.
func blend(c, bg color.RGBA, opacity float64) color.RGBA {
	fc, _ := colorful.MakeColor(c)
	bc, _ := colorful.MakeColor(bg)
	r, g, b := bc.BlendRgb(fc, opacity).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
