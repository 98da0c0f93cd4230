package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/iburimskiy/particle-field/internal/audio"
	"github.com/iburimskiy/particle-field/internal/config"
	"github.com/iburimskiy/particle-field/internal/game"
	"github.com/iburimskiy/particle-field/internal/telemetry"
	"github.com/iburimskiy/particle-field/internal/term"
	"github.com/iburimskiy/particle-field/internal/theme"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file merged over the defaults")
		audioPath  = flag.String("audio", "", "audio file to react to (wav, mp3, flac)")
		frontend   = flag.String("frontend", "window", "window or terminal")
		themePref  = flag.String("theme", "", "auto, dark or light (overrides config)")
		tracePath  = flag.String("trace", "", "write a per-frame CSV trace to this file")
		noDialog   = flag.Bool("no-dialog", false, "never open a file dialog for audio")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logOut := os.Stdout
	if *frontend == "terminal" {
		// the terminal belongs to the field
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(logger, *configPath, *audioPath, *frontend, *themePref, *tracePath, *noDialog); err != nil {
		slog.Error("particle field failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath, audioPath, frontend, themePref, tracePath string, noDialog bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if configPath != "" {
		logger.Info("config loaded", "path", configPath)
	}
	if audioPath != "" {
		cfg.Audio.File = audioPath
	}
	if noDialog {
		cfg.Audio.Dialog = false
	}
	if themePref != "" {
		cfg.Theme.Preference = themePref
	}
	if tracePath != "" {
		cfg.Telemetry.Path = tracePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	recorder, err := telemetry.Create(cfg.Telemetry.Path, cfg.Telemetry.FlushEvery)
	if err != nil {
		return err
	}

	binder := &audio.FileBinder{
		Path:   cfg.Audio.File,
		Dialog: cfg.Audio.Dialog && frontend == "window",
		Options: audio.OpenOptions{
			Loop:     cfg.Audio.Loop,
			FFTSize:  cfg.Audio.FFTSize,
			RingSize: cfg.Audio.RingSize,
		},
		Log: logger.With("component", "audio"),
	}
	pref := theme.DetectPreference(cfg.Theme.Preference)

	switch frontend {
	case "window":
		g, err := game.New(cfg, game.Options{Binder: binder, Preference: pref, Recorder: recorder, Log: logger})
		if err != nil {
			return err
		}
		return g.Run()

	case "terminal":
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("opening terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("initializing terminal: %w", err)
		}
		defer screen.Fini()

		t, err := term.New(cfg, screen, term.Options{Binder: binder, Preference: pref, Recorder: recorder, Log: logger})
		if err != nil {
			return err
		}
		return t.Run()
	}
	return fmt.Errorf("unknown frontend %q", frontend)
}
