package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Particles.Count != 55 {
		t.Errorf("expected 55 particles, got %d", cfg.Particles.Count)
	}
	if len(cfg.Particles.Symbols) != 5 {
		t.Errorf("expected 5 symbols, got %d", len(cfg.Particles.Symbols))
	}

	tuning := []struct {
		name      string
		got, want float64
	}{
		{"displacement_scale", cfg.Tuning.DisplacementScale, 1.2},
		{"parallax_factor", cfg.Tuning.ParallaxFactor, 0.12},
		{"phase_step", cfg.Tuning.PhaseStep, 0.002},
		{"repulsion_radius", cfg.Tuning.RepulsionRadius, 140},
		{"repulsion_magnitude", cfg.Tuning.RepulsionMagnitude, 3},
		{"wrap_margin", cfg.Tuning.WrapMargin, 60},
		{"smoothing_factor", cfg.Tuning.SmoothingFactor, 0.08},
		{"volume", cfg.Audio.Volume, 0.6},
		{"sensitivity", cfg.Audio.Sensitivity, 1},
	}
	for _, tc := range tuning {
		if tc.got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, tc.got)
		}
	}

	if cfg.Panel.IdleTimeout != 3*time.Second {
		t.Errorf("expected idle timeout 3s, got %v", cfg.Panel.IdleTimeout)
	}
	if cfg.Audio.SampleInterval != 16*time.Millisecond {
		t.Errorf("expected sample interval 16ms, got %v", cfg.Audio.SampleInterval)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.yaml")
	data := []byte("particles:\n  count: 3\ntuning:\n  repulsion_radius: 200\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Particles.Count != 3 {
		t.Errorf("expected count 3, got %d", cfg.Particles.Count)
	}
	if cfg.Tuning.RepulsionRadius != 200 {
		t.Errorf("expected radius 200, got %v", cfg.Tuning.RepulsionRadius)
	}
	// untouched fields keep their defaults
	if cfg.Tuning.ParallaxFactor != 0.12 {
		t.Errorf("expected default parallax, got %v", cfg.Tuning.ParallaxFactor)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"negative count": "particles:\n  count: -1\n",
		"no symbols":     "particles:\n  symbols: []\n",
		"bad noise":      "noise:\n  kind: perlin\n",
		"bad preference": "theme:\n  preference: sepia\n",
		"empty palette":  "theme:\n  dark: []\n",
		"no ring":        "audio:\n  ring_size: 0\n",
		"short ring":     "audio:\n  ring_size: 128\n",
		"nan volume":     "audio:\n  volume: .nan\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
