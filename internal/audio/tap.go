package audio

import (
	"sync"

	"github.com/faiface/beep"
)

// visualTap wraps a beep.Streamer and records the last N samples into a ring buffer
// so the analyser can read recently played audio.
type visualTap struct {
	Source    beep.Streamer
	buffer    [][2]float64
	nextIndex int
	mu        sync.RWMutex
}

func newVisualTap(src beep.Streamer, ringSize int) *visualTap {
	return &visualTap{
		Source: src,
		buffer: make([][2]float64, ringSize),
	}
}

func (t *visualTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Source.Stream(samples)
	if n > 0 {
		t.mu.Lock()
		for i := 0; i < n; i++ {
			t.buffer[t.nextIndex] = samples[i]
			t.nextIndex++
			if t.nextIndex >= len(t.buffer) {
				t.nextIndex = 0
			}
		}
		t.mu.Unlock()
	}
	return n, ok
}

func (t *visualTap) Err() error { return t.Source.Err() }

// monoInto writes the last len(dst) samples, downmixed to mono, into dst in
// chronological order.
func (t *visualTap) monoInto(dst []float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := len(dst)
	if n > len(t.buffer) {
		n = len(t.buffer)
	}
	off := len(dst) - n
	for i := 0; i < off; i++ {
		dst[i] = 0
	}
	idx := t.nextIndex - n
	if idx < 0 {
		idx += len(t.buffer)
	}
	for i := 0; i < n; i++ {
		s := t.buffer[idx]
		dst[off+i] = (s[0] + s[1]) * 0.5
		idx++
		if idx >= len(t.buffer) {
			idx = 0
		}
	}
}
