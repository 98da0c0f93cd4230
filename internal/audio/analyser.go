package audio

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Analyser turns blocks of time-domain samples into byte-scaled magnitude
// bins: Blackman window, FFT, per-bin smoothing across calls, then decibels
// mapped linearly from [MinDecibels, MaxDecibels] onto [0,255].
type Analyser struct {
	MinDecibels float64
	MaxDecibels float64
	Smoothing   float64 // weight of the previous block, in [0,1)

	size     int
	fft      *fourier.FFT
	window   []float64
	windowed []float64
	coeffs   []complex128
	smoothed []float64
}

// NewAnalyser returns an analyser for blocks of size samples. size must be
// even; the spectrum has size/2 bins.
func NewAnalyser(size int) *Analyser {
	w := make([]float64, size)
	for i := range w {
		w[i] = 1
	}
	return &Analyser{
		MinDecibels: -100,
		MaxDecibels: -30,
		Smoothing:   0.8,
		size:        size,
		fft:         fourier.NewFFT(size),
		window:      window.Blackman(w),
		windowed:    make([]float64, size),
		smoothed:    make([]float64, size/2),
	}
}

// Size is the block length in samples.
func (a *Analyser) Size() int { return a.size }

// Bins is the number of magnitude bins produced per block.
func (a *Analyser) Bins() int { return a.size / 2 }

// Analyse consumes one block and writes up to Bins() values into dst.
// It returns the number of bins written. Analyse is not safe for concurrent use.
func (a *Analyser) Analyse(block []float64, dst []uint8) int {
	for i := range a.windowed {
		var s float64
		if i < len(block) {
			s = block[i]
		}
		a.windowed[i] = s * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.windowed)

	n := len(dst)
	if n > len(a.smoothed) {
		n = len(a.smoothed)
	}
	scale := 255 / (a.MaxDecibels - a.MinDecibels)
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) / float64(a.size)
		a.smoothed[k] = a.Smoothing*a.smoothed[k] + (1-a.Smoothing)*mag
		if k >= n {
			continue
		}
		db := 20 * math.Log10(a.smoothed[k])
		dst[k] = uint8(clamp(math.Floor(scale*(db-a.MinDecibels)), 0, 255))
	}
	return n
}

// Reset clears the smoothing history.
func (a *Analyser) Reset() {
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
}
