package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slidereveal.yaml")
	data := []byte("input: ./photos\nmode: terminal\nduration: 800ms\nclamp: FIT\nfps: 24\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.InputPath != "./photos" {
		t.Errorf("Expected input ./photos, got %s", cfg.InputPath)
	}
	if cfg.Mode != ModeTerminal {
		t.Errorf("Expected terminal mode, got %s", cfg.Mode)
	}
	if cfg.Duration != 800*time.Millisecond {
		t.Errorf("Expected 800ms, got %v", cfg.Duration)
	}
	if cfg.Clamp != ClampFit {
		t.Errorf("Expected fit clamp, got %s", cfg.Clamp)
	}
	if cfg.FPS != 24 {
		t.Errorf("Expected 24 fps, got %d", cfg.FPS)
	}
	// untouched keys keep their defaults
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("Expected default 1280x720, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero values", Config{}, false},
		{"bad clamp", Config{Clamp: "stretch"}, true},
		{"bad mode", Config{Mode: "web"}, true},
		{"negative size", Config{Width: -1}, true},
		{"record without output", Config{Mode: ModeRecord}, true},
		{"record", Config{Mode: ModeRecord, OutputVideo: "out.mp4"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if cfg.Duration != DefaultDuration {
				t.Errorf("Expected default duration, got %v", cfg.Duration)
			}
			if cfg.Clamp != ClampCrop && tt.cfg.Clamp == "" {
				t.Errorf("Expected crop clamp, got %s", cfg.Clamp)
			}
		})
	}
}
