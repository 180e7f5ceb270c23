package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ClampMode controls how a source image is fitted into the viewport.
// Only crop is implemented; fit and inside are accepted and decode as crop.
type ClampMode string

const (
	ClampCrop   ClampMode = "crop"
	ClampFit    ClampMode = "fit"
	ClampInside ClampMode = "inside"
)

// ParseClampMode accepts crop, fit and inside in any case. Empty means crop.
func ParseClampMode(s string) (ClampMode, error) {
	switch ClampMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClampCrop:
		return ClampCrop, nil
	case ClampFit:
		return ClampFit, nil
	case ClampInside:
		return ClampInside, nil
	default:
		return "", fmt.Errorf("unknown clamp mode: %s", s)
	}
}

const (
	ModeWindow   = "window"
	ModeTerminal = "terminal"
	ModeRecord   = "record"
)

const DefaultDuration = 1500 * time.Millisecond

type Config struct {
	InputPath    string        `yaml:"input"`
	Mode         string        `yaml:"mode"`
	Width        int           `yaml:"width"`
	Height       int           `yaml:"height"`
	FPS          int           `yaml:"fps"`
	Duration     time.Duration `yaml:"duration"`
	Clamp        ClampMode     `yaml:"clamp"`
	DPI          int           `yaml:"dpi"`
	OutputVideo  string        `yaml:"output"`
	Listen       string        `yaml:"listen"`
	ScanInterval time.Duration `yaml:"scan_interval"`
	Autoplay     time.Duration `yaml:"autoplay"`
	RecordLength time.Duration `yaml:"record_length"`
	Quality      int           `yaml:"quality"`
	VideoEncoder string        `yaml:"-"`
	ShowStats    bool          `yaml:"stats"`
	Debug        bool          `yaml:"debug"`
	BuildVersion string        `yaml:"-"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Mode:         ModeWindow,
		Width:        1280,
		Height:       720,
		FPS:          60,
		Duration:     DefaultDuration,
		Clamp:        ClampCrop,
		DPI:          150,
		ScanInterval: 5 * time.Second,
		RecordLength: 10 * time.Second,
	}
}

// Load reads a YAML config file on top of Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate normalizes zero values and rejects settings the hosts cannot run with.
func (c *Config) Validate() error {
	clamp, err := ParseClampMode(string(c.Clamp))
	if err != nil {
		return err
	}
	c.Clamp = clamp

	switch c.Mode {
	case "":
		c.Mode = ModeWindow
	case ModeWindow, ModeTerminal, ModeRecord:
	default:
		return fmt.Errorf("unknown mode: %s", c.Mode)
	}

	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("negative viewport %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		c.FPS = 60
	}
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
	if c.DPI <= 0 {
		c.DPI = 150
	}
	if c.Mode == ModeRecord && c.OutputVideo == "" {
		return fmt.Errorf("record mode needs an output path")
	}
	return nil
}
