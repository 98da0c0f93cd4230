package audio

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Phase is the tracker lifecycle state. A successful bind is not a phase of
// its own: Gesture moves straight from Uninitialized to Enabled, or to
// Disabled when the user muted before binding. Bound reports whether that
// step has happened.
type Phase int32

const (
	Uninitialized Phase = iota
	Enabled
	Disabled
)

func (p Phase) String() string {
	switch p {
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	}
	return "uninitialized"
}

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	Smoothing      float64       // fraction of the gap closed per sample
	BassBins       int           // lowest bins averaged into the bass level
	SampleInterval time.Duration // 0 leaves sampling to the caller
	Volume         float64
	Sensitivity    float64
	Log            *slog.Logger
}

// Tracker owns the audio binding and produces the smoothed beat energy.
//
// Energy and Sensitivity are read from the frame loop while the sampling
// goroutine and the control panel write them, so both are stored as atomic
// float bits. Lifecycle transitions are serialised by mu.
type Tracker struct {
	binder Binder
	opts   TrackerOptions
	log    *slog.Logger

	energy      atomic.Uint64
	sensitivity atomic.Uint64
	phase       atomic.Int32

	mu        sync.Mutex
	source    Source
	attempted bool
	wantOn    bool
	volume    float64
	bins      []uint8
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewTracker returns an Uninitialized tracker that will bind through binder.
func NewTracker(binder Binder, opts TrackerOptions) *Tracker {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	t := &Tracker{
		binder: binder,
		opts:   opts,
		log:    opts.Log,
		wantOn: true,
		volume: clamp01(opts.Volume),
	}
	t.storeSensitivity(clamp(opts.Sensitivity, 0, 2))
	return t
}

// Phase returns the current lifecycle phase.
func (t *Tracker) Phase() Phase {
	return Phase(t.phase.Load())
}

// Bound reports whether a source has been bound.
func (t *Tracker) Bound() bool {
	return t.Phase() != Uninitialized
}

// Energy returns the smoothed beat energy in [0,1].
func (t *Tracker) Energy() float64 {
	return math.Float64frombits(t.energy.Load())
}

// Sensitivity returns the energy multiplier in [0,2].
func (t *Tracker) Sensitivity() float64 {
	return math.Float64frombits(t.sensitivity.Load())
}

// Volume returns the last user-set volume.
func (t *Tracker) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// Enabled reports whether audio reactivity is switched on. Before binding it
// reports the state the tracker will take once bound.
func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wantOn
}

// SetSensitivity clamps v to [0,2].
func (t *Tracker) SetSensitivity(v float64) {
	t.storeSensitivity(clamp(v, 0, 2))
}

// SetVolume clamps v to [0,1] and applies it at once when audio is playing.
// While Disabled the value is kept for the next Enable.
func (t *Tracker) SetVolume(v float64) {
	v = clamp01(v)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = v
	if t.Phase() == Enabled {
		t.source.SetGain(v)
	}
}

// Gesture handles a qualifying user gesture. The first call tries to bind
// the audio source; later calls do nothing. A failed bind leaves the tracker
// Uninitialized for the rest of the session.
func (t *Tracker) Gesture() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.attempted {
		return
	}
	t.attempted = true

	src, err := t.binder.Bind()
	if err != nil || src == nil {
		t.log.Debug("audio unavailable, running without beat energy", "error", err)
		return
	}
	t.source = src
	size := src.Bins()
	if size < t.opts.BassBins {
		size = t.opts.BassBins
	}
	t.bins = make([]uint8, size)
	t.log.Info("audio bound", "bins", src.Bins())

	if t.wantOn {
		t.enableLocked()
	} else {
		t.disableLocked()
	}
}

// Toggle flips between Enabled and Disabled.
func (t *Tracker) Toggle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.wantOn = !t.wantOn
	if t.source == nil {
		return
	}
	if t.wantOn {
		t.enableLocked()
	} else {
		t.disableLocked()
	}
}

// Sample runs one sampling iteration: average the bass bins, normalise and
// move the energy a fixed fraction towards it. It does nothing unless Enabled.
func (t *Tracker) Sample() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sampleLocked()
}

func (t *Tracker) sampleLocked() {
	if t.Phase() != Enabled {
		return
	}
	n := t.source.FrequencyData(t.bins)
	if n > t.opts.BassBins {
		n = t.opts.BassBins
	}
	if n <= 0 {
		return
	}
	var sum float64
	for _, b := range t.bins[:n] {
		sum += float64(b)
	}
	bass := clamp01(sum / float64(n) / 255)

	e := t.Energy()
	e += (bass - e) * t.opts.Smoothing
	t.energy.Store(math.Float64bits(clamp01(e)))
}

// Dispose stops sampling and silences the source.
func (t *Tracker) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.source != nil && t.Phase() == Enabled {
		t.disableLocked()
	}
	if c, ok := t.source.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			t.log.Warn("closing audio source", "error", err)
		}
	}
}

func (t *Tracker) enableLocked() {
	t.source.Play()
	t.source.SetGain(t.volume)
	t.phase.Store(int32(Enabled))
	t.startLoopLocked()
	t.log.Info("audio enabled", "volume", t.volume)
}

func (t *Tracker) disableLocked() {
	t.stopLoopLocked()
	t.energy.Store(0)
	t.source.SetGain(0)
	t.source.Pause()
	t.phase.Store(int32(Disabled))
	t.log.Info("audio disabled")
}

func (t *Tracker) startLoopLocked() {
	if t.opts.SampleInterval <= 0 || t.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel, t.done = cancel, done
	go t.run(ctx, done)
}

// stopLoopLocked cancels the sampling goroutine and waits for it. The loop
// only takes mu through TryLock, so waiting here while holding mu is safe.
func (t *Tracker) stopLoopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel, t.done = nil, nil
}

func (t *Tracker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.opts.SampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a lifecycle transition holds mu while it waits for this loop;
			// skip the iteration rather than deadlock
			if !t.mu.TryLock() {
				continue
			}
			if ctx.Err() == nil {
				t.sampleLocked()
			}
			t.mu.Unlock()
		}
	}
}

func (t *Tracker) storeSensitivity(v float64) {
	t.sensitivity.Store(math.Float64bits(v))
}
