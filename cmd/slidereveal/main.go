package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/ivlev/slidereveal/internal/config"
	"github.com/ivlev/slidereveal/internal/system"
)

var version = "dev"

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "slidereveal: %v\n", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	)
	slog.SetDefault(logger)

	system.InitResourceLimits(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "version", cfg.BuildVersion, "mode", cfg.Mode, "input", cfg.InputPath)
	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("slidereveal failed", "err", err)
		os.Exit(1)
	}
}

func parseConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("slidereveal", flag.ContinueOnError)
	flagCfg := config.Default()

	configPtr := fs.String("config", "", "YAML config file; flags given explicitly override it")
	fs.StringVar(&flagCfg.InputPath, "input", "", "Photo directory or single image/PDF")
	fs.StringVar(&flagCfg.Mode, "mode", flagCfg.Mode, "Host: window, terminal, record")
	fs.IntVar(&flagCfg.Width, "width", flagCfg.Width, "Width")
	fs.IntVar(&flagCfg.Height, "height", flagCfg.Height, "Height")
	fs.IntVar(&flagCfg.FPS, "fps", flagCfg.FPS, "FPS")
	durationMsPtr := fs.Int("duration", int(flagCfg.Duration/time.Millisecond), "Reveal duration in milliseconds")
	clampPtr := fs.String("clamp", string(flagCfg.Clamp), "Clamp mode: crop, fit, inside")
	fs.IntVar(&flagCfg.DPI, "dpi", flagCfg.DPI, "DPI for PDF input")
	fs.StringVar(&flagCfg.OutputVideo, "output", "", "Output video (record mode)")
	fs.StringVar(&flagCfg.Listen, "listen", "", "HTTP control address, e.g. :8080")
	fs.DurationVar(&flagCfg.ScanInterval, "scan-interval", flagCfg.ScanInterval, "Media index poll interval, 0 disables polling")
	fs.DurationVar(&flagCfg.Autoplay, "autoplay", 0, "Advance automatically at this interval")
	fs.DurationVar(&flagCfg.RecordLength, "record-length", flagCfg.RecordLength, "Recorded video length")
	fs.IntVar(&flagCfg.Quality, "quality", 0, "Video quality (0 - auto, x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	presetPtr := fs.String("preset", "", "Format preset: 16:9, 9:16, 4:5")
	fs.BoolVar(&flagCfg.ShowStats, "stats", false, "Log memory stats periodically")
	fs.BoolVar(&flagCfg.Debug, "debug", false, "Debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	flagCfg.Duration = time.Duration(*durationMsPtr) * time.Millisecond
	flagCfg.Clamp = config.ClampMode(*clampPtr)

	switch *presetPtr {
	case "":
	case "16:9":
		flagCfg.Width, flagCfg.Height = 1280, 720
	case "9:16":
		flagCfg.Width, flagCfg.Height = 720, 1280
	case "4:5":
		flagCfg.Width, flagCfg.Height = 1080, 1350
	default:
		return nil, fmt.Errorf("unknown preset: %s", *presetPtr)
	}

	cfg := flagCfg
	if *configPtr != "" {
		fileCfg, err := config.Load(*configPtr)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
		fs.Visit(func(f *flag.Flag) {
			overrideFromFlag(cfg, flagCfg, f.Name)
		})
		if *presetPtr != "" {
			cfg.Width, cfg.Height = flagCfg.Width, flagCfg.Height
		}
	}

	if cfg.InputPath == "" && fs.NArg() > 0 {
		cfg.InputPath = fs.Arg(0)
	}
	if cfg.InputPath == "" {
		return nil, errors.New("no input: pass -input or a path argument")
	}
	if cfg.Mode == config.ModeRecord {
		encoder, _ := system.GetBestH264Encoder()
		cfg.VideoEncoder = encoder
		if cfg.Quality == 0 {
			cfg.Quality = system.DefaultQuality(encoder)
		}
	}
	cfg.BuildVersion = version
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overrideFromFlag copies the field behind an explicitly set flag.
func overrideFromFlag(dst, src *config.Config, name string) {
	switch name {
	case "input":
		dst.InputPath = src.InputPath
	case "mode":
		dst.Mode = src.Mode
	case "width":
		dst.Width = src.Width
	case "height":
		dst.Height = src.Height
	case "fps":
		dst.FPS = src.FPS
	case "duration":
		dst.Duration = src.Duration
	case "clamp":
		dst.Clamp = src.Clamp
	case "dpi":
		dst.DPI = src.DPI
	case "output":
		dst.OutputVideo = src.OutputVideo
	case "listen":
		dst.Listen = src.Listen
	case "scan-interval":
		dst.ScanInterval = src.ScanInterval
	case "autoplay":
		dst.Autoplay = src.Autoplay
	case "record-length":
		dst.RecordLength = src.RecordLength
	case "quality":
		dst.Quality = src.Quality
	case "stats":
		dst.ShowStats = src.ShowStats
	case "debug":
		dst.Debug = src.Debug
	}
}
