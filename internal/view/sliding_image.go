package view

import (
	"image"
	"image/draw"
	"log/slog"
	"sync"
	"time"

	"github.com/ivlev/slidereveal/internal/config"
	"github.com/ivlev/slidereveal/internal/decoder"
	"github.com/ivlev/slidereveal/internal/engine"
	"github.com/ivlev/slidereveal/internal/renderer"
)

// SlidingImage shows photos one after another, each revealed over the
// previous one. It is the Renderable the hosts drive; decoding happens on the
// attached loader.
type SlidingImage struct {
	engine *engine.Engine
	clamp  config.ClampMode
	logger *slog.Logger

	mu     sync.Mutex
	loader *decoder.Worker
	size   image.Point
}

var _ renderer.Renderable = (*SlidingImage)(nil)

// New builds the view. Clamp and duration are fixed for its lifetime.
func New(clamp config.ClampMode, duration time.Duration, clock renderer.Clock, logger *slog.Logger) *SlidingImage {
	if logger == nil {
		logger = slog.Default()
	}
	if duration <= 0 {
		duration = config.DefaultDuration
	}
	if clock == nil {
		clock = renderer.SystemClock{}
	}
	return &SlidingImage{
		engine: engine.New(duration, engine.WithClock(clock), engine.WithLogger(logger)),
		clamp:  clamp,
		logger: logger,
	}
}

func (v *SlidingImage) Engine() *engine.Engine { return v.engine }

// SetInvalidate installs the host's redraw request.
func (v *SlidingImage) SetInvalidate(fn func()) {
	v.engine.SetInvalidate(fn)
}

// SetLoader attaches a decode worker, pushing the clamp mode and the current
// size to it. Passing nil detaches the current loader.
func (v *SlidingImage) SetLoader(w *decoder.Worker) {
	v.mu.Lock()
	old := v.loader
	v.loader = w
	size := v.size
	v.mu.Unlock()

	if old != nil && old != w {
		old.SetDeliver(nil)
	}
	if w == nil {
		return
	}
	w.SetClamp(v.clamp)
	w.SetViewport(size.X, size.Y)
	w.SetDeliver(v.engine.Deliver)
}

// SizeChanged records the laid out size and updates the loader's viewport.
func (v *SlidingImage) SizeChanged(width, height int) {
	v.mu.Lock()
	if v.size == image.Pt(width, height) {
		v.mu.Unlock()
		return
	}
	v.size = image.Pt(width, height)
	loader := v.loader
	v.mu.Unlock()

	v.logger.Debug("view resized", "width", width, "height", height)
	if loader != nil {
		loader.SetViewport(width, height)
	}
}

func (v *SlidingImage) Size() image.Point {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// SetNextImage queues path on the loader, if one is attached.
func (v *SlidingImage) SetNextImage(path string) {
	v.mu.Lock()
	loader := v.loader
	v.mu.Unlock()
	if loader != nil {
		loader.Enqueue(path)
	}
}

// Measure takes the offered size when the host constrains a dimension and
// the screen size when it does not.
func (v *SlidingImage) Measure(c renderer.Constraints) image.Point {
	return image.Pt(measure(c.Width, c.Screen.X), measure(c.Height, c.Screen.Y))
}

func measure(spec renderer.Spec, screen int) int {
	switch spec.Mode {
	case renderer.Exactly, renderer.AtMost:
		return spec.Size
	default:
		return screen
	}
}

// Render clears bound and draws every live animation into it.
func (v *SlidingImage) Render(dst draw.Image, bound image.Rectangle) bool {
	if dst != nil {
		draw.Draw(dst, bound, image.Black, image.Point{}, draw.Src)
	}
	return v.engine.Render(dst, bound)
}

// Close detaches the loader and releases every bitmap.
func (v *SlidingImage) Close() {
	v.SetLoader(nil)
	v.engine.Close()
}
