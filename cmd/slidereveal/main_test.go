package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivlev/slidereveal/internal/config"
)

func TestParseConfigFlags(t *testing.T) {
	cfg, err := parseConfig([]string{"-preset", "9:16", "-duration", "800", "-clamp", "fit", "photos"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InputPath != "photos" {
		t.Errorf("Expected positional input, got %q", cfg.InputPath)
	}
	if cfg.Width != 720 || cfg.Height != 1280 {
		t.Errorf("Expected 720x1280, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Duration != 800*time.Millisecond || cfg.Clamp != config.ClampFit {
		t.Errorf("Unexpected duration %v clamp %s", cfg.Duration, cfg.Clamp)
	}
	if cfg.BuildVersion != version {
		t.Errorf("Expected version %s, got %s", version, cfg.BuildVersion)
	}
}

func TestParseConfigFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slidereveal.yaml")
	data := "input: /srv/photos\nmode: terminal\nwidth: 400\nfps: 24\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parseConfig([]string{"-config", path, "-fps", "12"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InputPath != "/srv/photos" || cfg.Mode != config.ModeTerminal || cfg.Width != 400 {
		t.Errorf("File values lost: %+v", cfg)
	}
	if cfg.FPS != 12 {
		t.Errorf("Explicit flag must override the file, got fps %d", cfg.FPS)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := [][]string{
		{},
		{"-preset", "1:1", "photos"},
		{"-clamp", "stretch", "photos"},
		{"-mode", "record", "photos"},
	}
	for _, args := range tests {
		if _, err := parseConfig(args); err == nil {
			t.Errorf("Expected error for %v", args)
		}
	}
}
