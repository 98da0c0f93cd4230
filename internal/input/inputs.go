// Package input collects pointer, scroll and viewport state from frontend
// events and dispatches those events to subscribers.
package input

import (
	"sync"

	"github.com/iburimskiy/particle-field/internal/particle"
)

// Snapshot is the input state one frame reads.
type Snapshot struct {
	Pointer     particle.Pointer
	ScrollDelta float64
	Viewport    particle.Viewport
}

// Inputs is written by event handlers and read by the frame loop.
type Inputs struct {
	mu           sync.Mutex
	pointer      particle.Pointer
	scrollOffset float64
	scrollDelta  float64
	viewport     particle.Viewport
}

// New returns inputs for the initial viewport and scroll offset.
func New(vp particle.Viewport, scrollOffset float64) *Inputs {
	return &Inputs{viewport: vp, scrollOffset: scrollOffset}
}

// PointerMove records the pointer position.
func (in *Inputs) PointerMove(x, y float64) {
	in.mu.Lock()
	in.pointer = particle.Pointer{X: x, Y: y, Present: true}
	in.mu.Unlock()
}

// PointerLeave clears the pointer.
func (in *Inputs) PointerLeave() {
	in.mu.Lock()
	in.pointer = particle.Pointer{}
	in.mu.Unlock()
}

// Scroll records a new scroll offset. The change against the previous offset
// accumulates until the next Frame.
func (in *Inputs) Scroll(offset float64) {
	in.mu.Lock()
	in.scrollDelta += offset - in.scrollOffset
	in.scrollOffset = offset
	in.mu.Unlock()
}

// ScrollOffset returns the last recorded scroll offset.
func (in *Inputs) ScrollOffset() float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.scrollOffset
}

// Resize records new viewport dimensions.
func (in *Inputs) Resize(width, height float64) {
	in.mu.Lock()
	in.viewport = particle.Viewport{Width: width, Height: height}
	in.mu.Unlock()
}

// Viewport returns the current viewport.
func (in *Inputs) Viewport() particle.Viewport {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.viewport
}

// Frame returns the state for one frame and starts a new scroll delta.
func (in *Inputs) Frame() Snapshot {
	in.mu.Lock()
	defer in.mu.Unlock()
	s := Snapshot{
		Pointer:     in.pointer,
		ScrollDelta: in.scrollDelta,
		Viewport:    in.viewport,
	}
	in.scrollDelta = 0
	return s
}
