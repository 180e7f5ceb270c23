package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/slidereveal/internal/config"
	"github.com/ivlev/slidereveal/internal/control"
	"github.com/ivlev/slidereveal/internal/decoder"
	"github.com/ivlev/slidereveal/internal/director"
	"github.com/ivlev/slidereveal/internal/renderer"
	"github.com/ivlev/slidereveal/internal/source"
	"github.com/ivlev/slidereveal/internal/system"
	"github.com/ivlev/slidereveal/internal/terminal"
	"github.com/ivlev/slidereveal/internal/video"
	"github.com/ivlev/slidereveal/internal/view"
	"github.com/ivlev/slidereveal/internal/window"
)

const statsInterval = 5 * time.Second

// app holds the components every host shares.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	view     *view.SlidingImage
	worker   *decoder.Worker
	director *director.Director
	index    *source.Index
	frames   *control.FrameStore
}

func newApp(cfg *config.Config, clock renderer.Clock, logger *slog.Logger) *app {
	a := &app{
		cfg:    cfg,
		logger: logger,
		view:   view.New(cfg.Clamp, cfg.Duration, clock, logger),
		worker: decoder.NewWorker(&decoder.FileDecoder{DPI: cfg.DPI}, logger),
	}
	a.view.SetLoader(a.worker)
	a.director = director.New(a.view, logger)
	a.index = source.NewIndex(cfg.InputPath, cfg.ScanInterval, logger)
	a.index.SetListener(a.director.OnIndexLoaded)
	if cfg.Listen != "" {
		a.frames = &control.FrameStore{}
	}
	return a
}

func (a *app) close() {
	a.worker.Terminate()
	a.view.Close()
}

// present chains the host's present with the control frame store.
func (a *app) present(host renderer.PresentFunc) renderer.PresentFunc {
	if a.frames == nil {
		return host
	}
	return func(frame *image.RGBA) error {
		if err := host(frame); err != nil {
			return err
		}
		return a.frames.Store(frame)
	}
}

// background starts the components shared by the interactive hosts.
func (a *app) background(ctx context.Context, g *errgroup.Group, resize func(w, h int)) {
	g.Go(func() error { return a.worker.Run(ctx) })
	g.Go(func() error { return a.index.Run(ctx) })
	g.Go(func() error { return a.director.Autoplay(ctx, a.cfg.Autoplay) })
	a.serveControl(ctx, g, resize)
	a.reportStats(ctx, g)
}

func (a *app) serveControl(ctx context.Context, g *errgroup.Group, resize func(w, h int)) {
	if a.cfg.Listen == "" {
		return
	}
	deps := control.Deps{
		Director:   a.director,
		Loader:     a.worker,
		Resize:     resize,
		Frames:     a.frames,
		Animations: a.view.Engine().Len,
		Logger:     a.logger,
	}
	a.logger.Info("control listening", "addr", a.cfg.Listen)
	g.Go(func() error { return control.Serve(ctx, a.cfg.Listen, deps) })
}

func (a *app) reportStats(ctx context.Context, g *errgroup.Group) {
	if !a.cfg.ShowStats {
		return
	}
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				a.logStats()
			}
		}
	})
}

func (a *app) logStats() {
	stats, err := system.MemoryReport()
	if err != nil {
		a.logger.Warn("memory report", "err", err)
	}
	stats.ActiveBitmaps = a.view.Engine().Len()
	stats.PendingDecodes = a.worker.Pending()
	a.logger.Info("stats", "memory", stats)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	switch cfg.Mode {
	case config.ModeTerminal:
		return runTerminal(ctx, cfg, logger)
	case config.ModeRecord:
		return runRecord(ctx, cfg, logger)
	default:
		return runWindow(ctx, cfg, logger)
	}
}

func runWindow(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a := newApp(cfg, renderer.SystemClock{}, logger)
	defer a.close()

	game := window.New(ctx, a.view, a.view, func() { a.director.Next() }, logger)
	defer game.Close()
	a.view.SetInvalidate(game.Invalidate)

	g, gctx := errgroup.WithContext(ctx)
	// the window owns its size; the control route only resizes the decode viewport
	a.background(gctx, g, a.view.SizeChanged)

	err := window.Run(game, "slidereveal", cfg.Width, cfg.Height)
	cancel()
	if werr := g.Wait(); err == nil {
		err = werr
	}
	return err
}

func runTerminal(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a := newApp(cfg, renderer.SystemClock{}, logger)
	defer a.close()

	var driver *renderer.Driver
	resize := func(w, h int) {
		a.view.SizeChanged(w, h)
		driver.Resize(w, h)
	}
	host, err := terminal.New(terminal.Actions{
		Advance: func() { a.director.Next() },
		Resize:  resize,
		Quit:    cancel,
	}, logger)
	if err != nil {
		return err
	}
	driver = renderer.NewDriver(a.view, a.present(host.Present), time.Second/time.Duration(cfg.FPS), logger)
	a.view.SetInvalidate(driver.Invalidate)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return host.Run(gctx) })
	g.Go(func() error { return driver.Run(gctx) })
	a.background(gctx, g, resize)
	return g.Wait()
}

// runRecord renders on a manual clock, one frame per 1/fps step, so the
// output does not depend on how fast frames are produced. Each advance waits
// for its decode before time moves on.
func runRecord(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clock := renderer.NewManualClock(time.Unix(0, 0))
	a := newApp(cfg, clock, logger)
	defer a.close()

	delivered := make(chan struct{}, 1)
	a.worker.SetDeliver(func(bitmap *image.RGBA) {
		a.view.Engine().Deliver(bitmap)
		select {
		case delivered <- struct{}{}:
		default:
		}
	})

	recorder, err := video.StartRecorder(ctx, cfg.OutputVideo, video.Params{
		Width:   cfg.Width,
		Height:  cfg.Height,
		FPS:     cfg.FPS,
		Encoder: cfg.VideoEncoder,
		Quality: cfg.Quality,
	})
	if err != nil {
		return err
	}
	logger.Info("recording", "output", cfg.OutputVideo, "encoder", cfg.VideoEncoder, "quality", cfg.Quality)

	driver := renderer.NewDriver(a.view, a.present(recorder.WriteFrame), 0, logger)
	a.view.SizeChanged(cfg.Width, cfg.Height)
	driver.Resize(cfg.Width, cfg.Height)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.worker.Run(gctx) })
	a.serveControl(gctx, g, nil)
	a.reportStats(gctx, g)

	g.Go(func() error {
		defer cancel()
		if err := recordFrames(gctx, a, clock, driver, delivered); err != nil {
			recorder.Close()
			return err
		}
		return recorder.Close()
	})

	err = g.Wait()
	if err == nil {
		logger.Info("recording finished", "output", cfg.OutputVideo, "frames", recorder.Frames())
	}
	return err
}

func recordFrames(ctx context.Context, a *app, clock *renderer.ManualClock, driver *renderer.Driver, delivered <-chan struct{}) error {
	cfg := a.cfg
	paths, err := a.index.Scan()
	if err != nil {
		return fmt.Errorf("scan %s: %w", cfg.InputPath, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no photos in %s", cfg.InputPath)
	}

	interval := cfg.Autoplay
	if interval <= 0 {
		interval = cfg.Duration + time.Second
	}
	step := time.Second / time.Duration(cfg.FPS)
	total := int(cfg.RecordLength / step)

	advance := func(first bool) error {
		if first {
			a.director.OnIndexLoaded(paths)
		} else if !a.director.Next() {
			return nil
		}
		select {
		case <-delivered:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := advance(true); err != nil {
		return err
	}
	var elapsed time.Duration
	next := interval
	for i := 0; i < total; i++ {
		if elapsed >= next {
			if err := advance(false); err != nil {
				return err
			}
			next += interval
		}
		if _, err := driver.Frame(); err != nil {
			return err
		}
		clock.Advance(step)
		elapsed += step
	}
	return nil
}
