package panel

import (
	"math"
	"testing"
	"time"
)

type fakeControls struct {
	sensitivity, volume float64
	enabled             bool
	toggles             int
}

func (f *fakeControls) SetSensitivity(v float64) { f.sensitivity = v }
func (f *fakeControls) SetVolume(v float64)      { f.volume = v }
func (f *fakeControls) Toggle()                  { f.enabled = !f.enabled; f.toggles++ }
func (f *fakeControls) Sensitivity() float64     { return f.sensitivity }
func (f *fakeControls) Volume() float64          { return f.volume }
func (f *fakeControls) Enabled() bool            { return f.enabled }

func TestIdleHide(t *testing.T) {
	p := New(&fakeControls{}, 3*time.Second)
	start := time.Unix(1000, 0)

	if p.Visible() {
		t.Fatal("panel should start hidden")
	}

	p.Activity(start)
	if !p.Visible() {
		t.Fatal("activity should show the panel")
	}

	p.Update(start.Add(2999 * time.Millisecond))
	if !p.Visible() {
		t.Error("panel hid before the timeout")
	}

	p.Update(start.Add(3 * time.Second))
	if p.Visible() {
		t.Error("panel should hide at the timeout")
	}
}

func TestActivityResetsCountdown(t *testing.T) {
	p := New(&fakeControls{}, 3*time.Second)
	start := time.Unix(1000, 0)

	p.Activity(start)
	p.Activity(start.Add(2 * time.Second))

	p.Update(start.Add(4 * time.Second))
	if !p.Visible() {
		t.Error("second activity should have restarted the countdown")
	}
	p.Update(start.Add(5 * time.Second))
	if p.Visible() {
		t.Error("panel should hide 3s after the last activity")
	}
	if p.Visibility().String() != "hidden" {
		t.Errorf("unexpected visibility %v", p.Visibility())
	}
}

func TestRevealAt(t *testing.T) {
	p := New(&fakeControls{}, 3*time.Second)
	start := time.Unix(1000, 0)
	p.RevealAt(start.Add(600 * time.Millisecond))

	p.Update(start.Add(500 * time.Millisecond))
	if p.Visible() {
		t.Fatal("revealed too early")
	}
	p.Update(start.Add(600 * time.Millisecond))
	if !p.Visible() {
		t.Fatal("expected scheduled reveal")
	}
	p.Update(start.Add(3600 * time.Millisecond))
	if p.Visible() {
		t.Error("scheduled reveal should also time out")
	}
}

func TestForwardsClampedIntents(t *testing.T) {
	c := &fakeControls{enabled: true}
	p := New(c, time.Second)

	cases := []struct {
		in, sens, vol float64
	}{
		{-0.5, 0, 0},
		{0.333, 0.33, 0.33},
		{1.5, 1.5, 1},
		{7, 2, 1},
		{math.NaN(), 0, 0},
	}
	for _, tc := range cases {
		p.SetSensitivity(tc.in)
		p.SetVolume(tc.in)
		if c.sensitivity != tc.sens || c.volume != tc.vol {
			t.Errorf("in %v: sensitivity %v volume %v, want %v %v", tc.in, c.sensitivity, c.volume, tc.sens, tc.vol)
		}
	}

	p.Toggle()
	if c.toggles != 1 || c.enabled {
		t.Error("toggle not forwarded")
	}
}

func TestState(t *testing.T) {
	c := &fakeControls{enabled: true, sensitivity: 1, volume: 0.6}
	p := New(c, time.Second)

	s := p.State()
	if !s.ShowSliders || s.Icon != "🎧" || s.Sensitivity != 0.5 || s.Volume != 0.6 {
		t.Errorf("unexpected state %+v", s)
	}

	p.Toggle()
	s = p.State()
	if s.ShowSliders || s.Icon != "🔇" {
		t.Errorf("disabled audio should hide sliders, got %+v", s)
	}
}
