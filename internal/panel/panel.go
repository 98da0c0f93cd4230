// Package panel holds the audio control panel contract: it forwards slider
// and toggle intents to the audio tracker and decides when the panel shows.
package panel

import (
	"math"
	"time"
)

// Controls is the audio side the panel forwards intents to.
type Controls interface {
	SetSensitivity(v float64)
	SetVolume(v float64)
	Toggle()
	Sensitivity() float64
	Volume() float64
	Enabled() bool
}

// Visibility is the panel display state.
type Visibility int

const (
	Hidden Visibility = iota
	Visible
)

func (v Visibility) String() string {
	if v == Visible {
		return "visible"
	}
	return "hidden"
}

// Slider ranges and resolution.
const (
	SensitivityMax = 2.0
	VolumeMax      = 1.0
	Steps          = 100 // slider positions per unit
)

// Panel is driven from the frame loop: activity events and Update calls
// must come from the same goroutine.
type Panel struct {
	controls Controls
	timeout  time.Duration

	visibility Visibility
	deadline   time.Time
	revealAt   time.Time
}

// New returns a hidden panel that hides again timeout after the last activity.
func New(controls Controls, timeout time.Duration) *Panel {
	return &Panel{controls: controls, timeout: timeout}
}

// Visibility returns the current state.
func (p *Panel) Visibility() Visibility {
	return p.visibility
}

// Visible reports whether the panel is shown.
func (p *Panel) Visible() bool {
	return p.visibility == Visible
}

// RevealAt schedules a reveal without user activity, used once at startup.
func (p *Panel) RevealAt(at time.Time) {
	p.revealAt = at
}

// Activity shows the panel and restarts the inactivity countdown.
func (p *Panel) Activity(now time.Time) {
	p.visibility = Visible
	p.deadline = now.Add(p.timeout)
	p.revealAt = time.Time{}
}

// Update applies the scheduled reveal and the inactivity timeout.
func (p *Panel) Update(now time.Time) {
	if !p.revealAt.IsZero() && !now.Before(p.revealAt) {
		p.Activity(now)
	}
	if p.visibility == Visible && !now.Before(p.deadline) {
		p.visibility = Hidden
	}
}

// SetSensitivity forwards a sensitivity slider value.
func (p *Panel) SetSensitivity(v float64) {
	p.controls.SetSensitivity(quantize(v, 0, SensitivityMax))
}

// SetVolume forwards a volume slider value.
func (p *Panel) SetVolume(v float64) {
	p.controls.SetVolume(quantize(v, 0, VolumeMax))
}

// Toggle forwards the enable/disable intent.
func (p *Panel) Toggle() {
	p.controls.Toggle()
}

// State is what a frontend needs to draw the panel.
type State struct {
	Visible     bool
	Enabled     bool
	ShowSliders bool
	Icon        string
	Sensitivity float64 // slider position in [0,1]
	Volume      float64 // slider position in [0,1]
}

// State describes the panel for drawing.
func (p *Panel) State() State {
	on := p.controls.Enabled()
	icon := "🔇"
	if on {
		icon = "🎧"
	}
	return State{
		Visible:     p.Visible(),
		Enabled:     on,
		ShowSliders: on,
		Icon:        icon,
		Sensitivity: p.controls.Sensitivity() / SensitivityMax,
		Volume:      p.controls.Volume() / VolumeMax,
	}
}

func quantize(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		v = lo
	}
	v = math.Max(lo, math.Min(hi, v))
	return math.Round(v*Steps) / Steps
}
