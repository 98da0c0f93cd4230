// Package config provides configuration loading for the particle field.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of the engine and its frontends.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Particles ParticlesConfig `yaml:"particles"`
	Tuning    Tuning          `yaml:"tuning"`
	Audio     AudioConfig     `yaml:"audio"`
	Theme     ThemeConfig     `yaml:"theme"`
	Panel     PanelConfig     `yaml:"panel"`
	Noise     NoiseConfig     `yaml:"noise"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// WindowConfig holds the initial surface size.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// ParticlesConfig holds population parameters.
type ParticlesConfig struct {
	Count      int      `yaml:"count"`
	Symbols    []string `yaml:"symbols"`
	MinSize    float64  `yaml:"min_size"`    // smallest glyph size in px
	SizeSpread float64  `yaml:"size_spread"` // glyph size is MinSize + rand*SizeSpread
}

// Tuning holds the motion and energy constants. The values are kept as
// found; none of them is derived from the others.
type Tuning struct {
	DisplacementScale  float64 `yaml:"displacement_scale"`
	ParallaxFactor     float64 `yaml:"parallax_factor"`
	PhaseStep          float64 `yaml:"phase_step"` // per tick, not per second
	TimeScale          float64 `yaml:"time_scale"` // global t per elapsed millisecond
	RepulsionRadius    float64 `yaml:"repulsion_radius"`
	RepulsionMagnitude float64 `yaml:"repulsion_magnitude"`
	WrapMargin         float64 `yaml:"wrap_margin"`
	BaseOpacity        float64 `yaml:"base_opacity"`
	NearOpacity        float64 `yaml:"near_opacity"`
	SmoothingFactor    float64 `yaml:"smoothing_factor"`
	BassBins           int     `yaml:"bass_bins"`
}

// AudioConfig holds audio source and tracker settings.
type AudioConfig struct {
	File           string        `yaml:"file"`
	Dialog         bool          `yaml:"dialog"` // ask for a file when File is empty
	Loop           bool          `yaml:"loop"`
	Volume         float64       `yaml:"volume"`
	Sensitivity    float64       `yaml:"sensitivity"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	FFTSize        int           `yaml:"fft_size"`
	RingSize       int           `yaml:"ring_size"`
}

// ThemeConfig holds palettes and the preference source.
type ThemeConfig struct {
	Preference string   `yaml:"preference"` // auto, dark or light
	Dark       []string `yaml:"dark"`
	Light      []string `yaml:"light"`
}

// PanelConfig holds control panel timing.
type PanelConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	InitialReveal time.Duration `yaml:"initial_reveal"`
}

// NoiseConfig selects the noise field.
type NoiseConfig struct {
	Kind string `yaml:"kind"` // sine, simplex or none
	Seed int64  `yaml:"seed"`
}

// TelemetryConfig controls the per-frame CSV trace.
type TelemetryConfig struct {
	Path       string `yaml:"path"` // empty disables tracing
	FlushEvery int    `yaml:"flush_every"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Particles.Count < 0:
		return fmt.Errorf("particles.count must not be negative, got %d", c.Particles.Count)
	case len(c.Particles.Symbols) == 0:
		return fmt.Errorf("particles.symbols must not be empty")
	case len(c.Theme.Dark) == 0 || len(c.Theme.Light) == 0:
		return fmt.Errorf("theme palettes must not be empty")
	case c.Tuning.BassBins <= 0:
		return fmt.Errorf("tuning.bass_bins must be positive, got %d", c.Tuning.BassBins)
	case c.Audio.FFTSize < 2*c.Tuning.BassBins:
		return fmt.Errorf("audio.fft_size %d too small for %d bass bins", c.Audio.FFTSize, c.Tuning.BassBins)
	case c.Audio.RingSize < c.Audio.FFTSize:
		return fmt.Errorf("audio.ring_size %d must hold at least one %d sample block", c.Audio.RingSize, c.Audio.FFTSize)
	case math.IsNaN(c.Audio.Volume) || math.IsNaN(c.Audio.Sensitivity):
		return fmt.Errorf("audio.volume and audio.sensitivity must be numbers")
	case c.Audio.SampleInterval < 0:
		return fmt.Errorf("audio.sample_interval must not be negative")
	}
	switch c.Noise.Kind {
	case "sine", "simplex", "none":
	default:
		return fmt.Errorf("unknown noise.kind %q", c.Noise.Kind)
	}
	switch c.Theme.Preference {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("unknown theme.preference %q", c.Theme.Preference)
	}
	return nil
}
