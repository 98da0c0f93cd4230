package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/ncruces/zenity"
)

// FileSource plays a decoded audio file through the speaker:
// stream -> volume -> tap -> ctrl -> speaker.
type FileSource struct {
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	tap      *visualTap
	volume   *effects.Volume
	ctrl     *beep.Ctrl

	// mu guards the analyser and its block buffer
	mu       sync.Mutex
	analyser *Analyser
	block    []float64
}

// OpenOptions configures OpenFile.
type OpenOptions struct {
	Loop     bool
	FFTSize  int
	RingSize int
}

// OpenFile decodes path and queues it on the speaker, paused and silent.
func OpenFile(path string, opts OpenOptions) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audio file: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		_ = f.Close()
		return nil, errors.New("unsupported file type: " + ext)
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	// the tap keeps receiving samples after the track ends so the spectrum
	// decays to silence instead of freezing on the last block
	var body beep.Streamer = beep.Seq(streamer, beep.Silence(-1))
	if opts.Loop {
		body = beep.Loop(-1, streamer)
	}

	vol, t, ctrl := newChain(body, opts.RingSize)

	bufferSize := format.SampleRate.N(time.Second / 20)
	if err := speaker.Init(format.SampleRate, bufferSize); err != nil {
		_ = streamer.Close()
		_ = f.Close()
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}
	speaker.Play(ctrl)

	return &FileSource{
		file:     f,
		streamer: streamer,
		format:   format,
		tap:      t,
		volume:   vol,
		ctrl:     ctrl,
		analyser: NewAnalyser(opts.FFTSize),
		block:    make([]float64, opts.FFTSize),
	}, nil
}

// newChain builds the gain, tap and pause stages around body. The tap sits
// after the gain so the analysed spectrum follows the output volume.
func newChain(body beep.Streamer, ringSize int) (*effects.Volume, *visualTap, *beep.Ctrl) {
	vol := &effects.Volume{Streamer: body, Base: 2, Silent: true}
	t := newVisualTap(vol, ringSize)
	ctrl := &beep.Ctrl{Streamer: t, Paused: true}
	return vol, t, ctrl
}

// Play resumes playback.
func (s *FileSource) Play() {
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

// Pause halts playback.
func (s *FileSource) Pause() {
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

// SetGain sets a linear gain in [0,1].
func (s *FileSource) SetGain(g float64) {
	g = clamp01(g)
	speaker.Lock()
	s.volume.Silent = g == 0
	if g > 0 {
		s.volume.Volume = math.Log2(g)
	}
	speaker.Unlock()
}

// FrequencyData analyses the most recent block of played samples.
func (s *FileSource) FrequencyData(dst []uint8) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tap.monoInto(s.block)
	return s.analyser.Analyse(s.block, dst)
}

// Bins returns the spectrum size.
func (s *FileSource) Bins() int {
	return s.analyser.Bins()
}

// Close stops playback and releases the file.
func (s *FileSource) Close() error {
	speaker.Lock()
	speaker.Clear()
	speaker.Unlock()
	err := s.streamer.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// FileBinder binds a FileSource from a configured path, or from a file
// dialog when no path is set.
type FileBinder struct {
	Path    string
	Dialog  bool
	Options OpenOptions
	Log     *slog.Logger

	// SelectFile replaces the native dialog; nil uses zenity.
	SelectFile func() (string, error)
}

// Bind opens the audio file. A cancelled dialog or missing path yields ErrNoSource.
func (b *FileBinder) Bind() (Source, error) {
	path := b.Path
	if path == "" {
		if !b.Dialog {
			return nil, ErrNoSource
		}
		selectFile := b.SelectFile
		if selectFile == nil {
			selectFile = selectFileDialog
		}
		var err error
		path, err = selectFile()
		if err != nil {
			if errors.Is(err, zenity.ErrCanceled) {
				return nil, ErrNoSource
			}
			return nil, fmt.Errorf("%w: %v", ErrNoSource, err)
		}
	}

	src, err := OpenFile(path, b.Options)
	if err != nil {
		return nil, err
	}
	if b.Log != nil {
		b.Log.Info("audio file loaded", "path", path, "sample_rate", int(src.format.SampleRate))
	}
	return src, nil
}

func selectFileDialog() (string, error) {
	return zenity.SelectFile(
		zenity.Title("Open Audio File"),
		zenity.FileFilters{{
			Name:     "Audio",
			Patterns: []string{"*.wav", "*.mp3", "*.flac"},
		}},
	)
}
