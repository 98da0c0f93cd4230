// Package theme resolves the particle palette from the system color scheme
// preference and tracks preference changes.
package theme

import (
	"fmt"
	"image/color"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette is an ordered non-empty set of colors.
type Palette []color.RGBA

// ParsePalette parses hex color strings such as "#9fb6ff".
func ParsePalette(hexes []string) (Palette, error) {
	if len(hexes) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}
	p := make(Palette, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("parsing palette color %q: %w", h, err)
		}
		r, g, b := c.RGB255()
		p = append(p, color.RGBA{R: r, G: g, B: b, A: 255})
	}
	return p, nil
}

// Pick returns a color chosen uniformly at random.
func (p Palette) Pick(rng *rand.Rand) color.RGBA {
	return p[rng.Intn(len(p))]
}

// Contains reports whether c is one of the palette entries.
func (p Palette) Contains(c color.RGBA) bool {
	for _, pc := range p {
		if pc == c {
			return true
		}
	}
	return false
}

// Preference is the system color scheme preference.
type Preference int

const (
	Light Preference = iota
	Dark
)

func (p Preference) String() string {
	if p == Dark {
		return "dark"
	}
	return "light"
}

// DetectPreference maps a configured preference to Dark or Light. "auto"
// consults the terminal and desktop environment and falls back to Dark.
func DetectPreference(setting string) Preference {
	switch setting {
	case "dark":
		return Dark
	case "light":
		return Light
	}
	if gtk := os.Getenv("GTK_THEME"); gtk != "" {
		if strings.Contains(strings.ToLower(gtk), "dark") {
			return Dark
		}
		return Light
	}
	// COLORFGBG is "fg;bg" with ANSI indices; backgrounds 0-6 and 8 are dark
	if fgbg := os.Getenv("COLORFGBG"); fgbg != "" {
		parts := strings.Split(fgbg, ";")
		if bg, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			if bg <= 6 || bg == 8 {
				return Dark
			}
			return Light
		}
	}
	return Dark
}

// ChangeFunc is notified with the new palette after a preference change.
type ChangeFunc func(pref Preference, palette Palette)

// Controller owns palette selection. Particles keep their own copies of the
// colors; the controller only announces which palette is active.
type Controller struct {
	dark, light Palette
	pref        atomic.Int32
	active      atomic.Pointer[Palette]

	mu        sync.Mutex
	nextID    int
	listeners []listener
	log       *slog.Logger
}

type listener struct {
	id int
	fn ChangeFunc
}

// NewController builds a controller from the two palettes.
func NewController(dark, light Palette, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{dark: dark, light: light, log: logger}
}

// ResolveInitial selects the palette for pref and makes it active.
func (c *Controller) ResolveInitial(pref Preference) Palette {
	p := c.paletteFor(pref)
	c.pref.Store(int32(pref))
	c.active.Store(&p)
	return p
}

// Palette returns the active palette.
func (c *Controller) Palette() Palette {
	if p := c.active.Load(); p != nil {
		return *p
	}
	return c.dark
}

// Preference returns the active preference.
func (c *Controller) Preference() Preference {
	return Preference(c.pref.Load())
}

// OnChange registers fn for preference changes. The returned func
// unregisters it.
func (c *Controller) OnChange(fn ChangeFunc) (cancel func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Change switches to the palette for pref. A notification that repeats the
// current preference is ignored.
func (c *Controller) Change(pref Preference) {
	if c.active.Load() != nil && c.Preference() == pref {
		return
	}
	p := c.paletteFor(pref)
	c.pref.Store(int32(pref))
	c.active.Store(&p)
	c.log.Info("theme preference changed", "preference", pref.String(), "colors", len(p))

	c.mu.Lock()
	listeners := append([]listener(nil), c.listeners...)
	c.mu.Unlock()
	for _, l := range listeners {
		l.fn(pref, p)
	}
}

// Toggle switches to the alternate preference.
func (c *Controller) Toggle() {
	if c.Preference() == Dark {
		c.Change(Light)
		return
	}
	c.Change(Dark)
}

func (c *Controller) paletteFor(pref Preference) Palette {
	if pref == Dark {
		return c.dark
	}
	return c.light
}
