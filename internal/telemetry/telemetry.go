// Package telemetry writes a per-frame trace of the engine inputs as CSV.
package telemetry

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// FrameRecord is one row of the trace.
type FrameRecord struct {
	Frame       int64   `csv:"frame"`
	ElapsedMs   float64 `csv:"elapsed_ms"`
	Energy      float64 `csv:"energy"`
	Sensitivity float64 `csv:"sensitivity"`
	Pointer     bool    `csv:"pointer"`
	ScrollDelta float64 `csv:"scroll_delta"`
	Width       float64 `csv:"width"`
	Height      float64 `csv:"height"`
	Particles   int     `csv:"particles"`
	NearPointer int     `csv:"near_pointer"`
	Audio       string  `csv:"audio"`
	Panel       string  `csv:"panel"`
}

// Recorder buffers records and flushes them in batches. A nil Recorder
// discards everything.
type Recorder struct {
	w             io.Writer
	closer        io.Closer
	flushEvery    int
	pending       []FrameRecord
	headerWritten bool
}

// NewRecorder writes to w, flushing every flushEvery records.
func NewRecorder(w io.Writer, flushEvery int) *Recorder {
	if flushEvery <= 0 {
		flushEvery = 1
	}
	return &Recorder{w: w, flushEvery: flushEvery}
}

// Create opens path for writing. An empty path disables recording and
// returns a nil Recorder.
func Create(path string, flushEvery int) (*Recorder, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry file: %w", err)
	}
	r := NewRecorder(f, flushEvery)
	r.closer = f
	return r, nil
}

// Record queues rec and flushes when the batch is full.
func (r *Recorder) Record(rec FrameRecord) error {
	if r == nil {
		return nil
	}
	r.pending = append(r.pending, rec)
	if len(r.pending) >= r.flushEvery {
		return r.Flush()
	}
	return nil
}

// Flush writes the queued records.
func (r *Recorder) Flush() error {
	if r == nil || len(r.pending) == 0 {
		return nil
	}

	if !r.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(r.pending, r.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(r.pending, r.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}
	r.pending = r.pending[:0]
	return nil
}

// Close flushes and closes the underlying file, if any.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	err := r.Flush()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
