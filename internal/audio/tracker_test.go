package audio

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

// fakeSource is a Source with a fixed spectrum.
type fakeSource struct {
	mu      sync.Mutex
	bins    []uint8
	playing bool
	gain    float64
	plays   int
	pauses  int
	closed  bool
}

func newFakeSource(n int, level uint8) *fakeSource {
	s := &fakeSource{bins: make([]uint8, n)}
	s.setLevel(level)
	return s
}

func (s *fakeSource) setLevel(level uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bins {
		s.bins[i] = level
	}
}

func (s *fakeSource) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
	s.plays++
}

func (s *fakeSource) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.pauses++
}

func (s *fakeSource) SetGain(g float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = g
}

func (s *fakeSource) FrequencyData(dst []uint8) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copy(dst, s.bins)
}

func (s *fakeSource) Bins() int { return len(s.bins) }

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSource) state() (bool, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing, s.gain
}

func testOptions() TrackerOptions {
	return TrackerOptions{
		Smoothing:   0.08,
		BassBins:    20,
		Volume:      0.6,
		Sensitivity: 1,
	}
}

func bindTo(src Source, calls *int) Binder {
	return BinderFunc(func() (Source, error) {
		*calls++
		return src, nil
	})
}

func TestGestureBindsOnce(t *testing.T) {
	src := newFakeSource(128, 0)
	var calls int
	tr := NewTracker(bindTo(src, &calls), testOptions())

	if tr.Phase() != Uninitialized {
		t.Fatalf("expected Uninitialized, got %v", tr.Phase())
	}
	tr.Gesture()
	tr.Gesture()

	if calls != 1 {
		t.Errorf("expected one bind attempt, got %d", calls)
	}
	if tr.Phase() != Enabled {
		t.Errorf("expected Enabled after binding, got %v", tr.Phase())
	}
	playing, gain := src.state()
	if !playing || gain != 0.6 {
		t.Errorf("expected playback at volume 0.6, got playing=%v gain=%v", playing, gain)
	}
}

func TestUnavailableSourceStaysUninitialized(t *testing.T) {
	var calls int
	tr := NewTracker(BinderFunc(func() (Source, error) {
		calls++
		return nil, ErrNoSource
	}), testOptions())

	tr.Gesture()
	tr.Gesture()
	tr.Toggle()
	tr.Toggle()
	tr.Sample()

	if calls != 1 {
		t.Errorf("expected no retry, got %d bind attempts", calls)
	}
	if tr.Phase() != Uninitialized {
		t.Errorf("expected Uninitialized, got %v", tr.Phase())
	}
	if tr.Energy() != 0 {
		t.Errorf("expected energy 0, got %v", tr.Energy())
	}
}

func TestBindErrorIsSwallowed(t *testing.T) {
	tr := NewTracker(BinderFunc(func() (Source, error) {
		return nil, errors.New("device busy")
	}), testOptions())
	tr.Gesture()
	if tr.Bound() {
		t.Error("tracker should not be bound after an error")
	}
}

func TestSampleSmoothsTowardsBass(t *testing.T) {
	src := newFakeSource(128, 255)
	var calls int
	tr := NewTracker(bindTo(src, &calls), testOptions())
	tr.Gesture()

	tr.Sample()
	if got := tr.Energy(); got < 0.0799 || got > 0.0801 {
		t.Errorf("after one sample expected 0.08, got %v", got)
	}

	prev := tr.Energy()
	for i := 0; i < 500; i++ {
		tr.Sample()
		e := tr.Energy()
		if e < prev || e > 1 {
			t.Fatalf("energy %v not monotone towards 1 (prev %v)", e, prev)
		}
		prev = e
	}
	if prev < 0.99 {
		t.Errorf("energy should approach 1, got %v", prev)
	}
}

func TestSampleUsesOnlyBassBins(t *testing.T) {
	src := newFakeSource(128, 0)
	for i := 20; i < 128; i++ {
		src.bins[i] = 255
	}
	var calls int
	tr := NewTracker(bindTo(src, &calls), testOptions())
	tr.Gesture()
	for i := 0; i < 50; i++ {
		tr.Sample()
	}
	if tr.Energy() != 0 {
		t.Errorf("energy should ignore bins above the bass band, got %v", tr.Energy())
	}
}

func TestSampleWithShortSpectrum(t *testing.T) {
	src := newFakeSource(8, 255)
	var calls int
	tr := NewTracker(bindTo(src, &calls), testOptions())
	tr.Gesture()
	tr.Sample()
	if got := tr.Energy(); got < 0.0799 || got > 0.0801 {
		t.Errorf("expected average over available bins, got %v", got)
	}
}

func TestDisableZeroesEnergy(t *testing.T) {
	src := newFakeSource(128, 200)
	var calls int
	tr := NewTracker(bindTo(src, &calls), testOptions())
	tr.Gesture()
	for i := 0; i < 30; i++ {
		tr.Sample()
	}
	if tr.Energy() == 0 {
		t.Fatal("expected some energy before disabling")
	}

	tr.Toggle()
	if tr.Phase() != Disabled {
		t.Fatalf("expected Disabled, got %v", tr.Phase())
	}
	if tr.Energy() != 0 {
		t.Errorf("expected energy 0 right after disabling, got %v", tr.Energy())
	}
	playing, gain := src.state()
	if playing || gain != 0 {
		t.Errorf("expected paused and silent, got playing=%v gain=%v", playing, gain)
	}

	tr.Sample()
	if tr.Energy() != 0 {
		t.Errorf("sampling while disabled must not move energy")
	}
}

func TestEnableRestoresVolume(t *testing.T) {
	src := newFakeSource(128, 0)
	var calls int
	tr := NewTracker(bindTo(src, &calls), testOptions())
	tr.Gesture()
	tr.SetVolume(0.3)
	tr.Toggle()

	tr.SetVolume(0.9)
	if _, gain := src.state(); gain != 0 {
		t.Errorf("volume change while disabled must stay silent, got gain %v", gain)
	}

	tr.Toggle()
	playing, gain := src.state()
	if !playing || gain != 0.9 {
		t.Errorf("expected playback at 0.9, got playing=%v gain=%v", playing, gain)
	}
}

func TestToggleBeforeBinding(t *testing.T) {
	src := newFakeSource(128, 0)
	var calls int
	tr := NewTracker(bindTo(src, &calls), testOptions())

	tr.Toggle()
	if tr.Enabled() {
		t.Error("toggle before binding should record the disabled intent")
	}
	if calls != 0 {
		t.Error("toggle must not bind")
	}

	tr.Gesture()
	if tr.Phase() != Disabled {
		t.Errorf("expected to bind straight into Disabled, got %v", tr.Phase())
	}
}

func TestClampedControls(t *testing.T) {
	var calls int
	tr := NewTracker(bindTo(newFakeSource(128, 0), &calls), testOptions())

	cases := []struct {
		in, sens, vol float64
	}{
		{-1, 0, 0},
		{0.5, 0.5, 0.5},
		{1.5, 1.5, 1},
		{9, 2, 1},
		{math.NaN(), 0, 0},
	}
	for _, tc := range cases {
		tr.SetSensitivity(tc.in)
		tr.SetVolume(tc.in)
		if tr.Sensitivity() != tc.sens {
			t.Errorf("SetSensitivity(%v) -> %v, want %v", tc.in, tr.Sensitivity(), tc.sens)
		}
		if tr.Volume() != tc.vol {
			t.Errorf("SetVolume(%v) -> %v, want %v", tc.in, tr.Volume(), tc.vol)
		}
	}
}

func TestSamplingLoopStopsOnDisable(t *testing.T) {
	src := newFakeSource(128, 255)
	var calls int
	opts := testOptions()
	opts.SampleInterval = time.Millisecond
	tr := NewTracker(bindTo(src, &calls), opts)
	tr.Gesture()

	deadline := time.Now().Add(2 * time.Second)
	for tr.Energy() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if tr.Energy() == 0 {
		t.Fatal("background loop never sampled")
	}

	tr.Toggle()
	time.Sleep(10 * time.Millisecond)
	if tr.Energy() != 0 {
		t.Errorf("loop kept writing energy after disable: %v", tr.Energy())
	}

	tr.Toggle()
	tr.Dispose()
	if !src.closed {
		t.Error("Dispose should close the source")
	}
	if tr.Energy() != 0 {
		t.Errorf("expected energy 0 after dispose, got %v", tr.Energy())
	}
}
