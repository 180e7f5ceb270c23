package engine

import (
	"image"
	"image/draw"
	"log/slog"
	"sync"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/ivlev/slidereveal/internal/effects"
	"github.com/ivlev/slidereveal/internal/renderer"
)

// minRetained animations are always kept, finished or not, so a burst of
// deliveries never leaves the view empty.
const minRetained = 2

// Engine owns the active animation set. Deliver runs on the decode worker,
// Render on the host's render loop; both go through mu.
type Engine struct {
	mu         sync.Mutex
	active     []*Animation
	selector   Selector
	duration   time.Duration
	clock      renderer.Clock
	easing     ease.TweenFunc
	invalidate func()
	logger     *slog.Logger
}

type Option func(*Engine)

func WithClock(c renderer.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithEasing(fn ease.TweenFunc) Option {
	return func(e *Engine) { e.easing = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine whose animations last duration.
func New(duration time.Duration, opts ...Option) *Engine {
	e := &Engine{
		duration: duration,
		clock:    renderer.SystemClock{},
		easing:   renderer.DefaultEasing,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetInvalidate installs the redraw request hook. It is called outside the
// engine lock and must not block.
func (e *Engine) SetInvalidate(fn func()) {
	e.mu.Lock()
	e.invalidate = fn
	e.mu.Unlock()
}

// SetDuration applies to animations created afterwards.
func (e *Engine) SetDuration(d time.Duration) {
	e.mu.Lock()
	e.duration = d
	e.mu.Unlock()
}

func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Len returns the size of the active set.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// Kinds lists the reveal kinds in the active set, oldest first.
func (e *Engine) Kinds() []effects.Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	kinds := make([]effects.Kind, len(e.active))
	for i, a := range e.active {
		kinds[i] = a.Kind()
	}
	return kinds
}

// Deliver wraps a decoded bitmap in a new animation starting now. Nil bitmaps
// are failed decodes and are dropped without touching the selection counter.
func (e *Engine) Deliver(bitmap *image.RGBA) {
	if bitmap == nil {
		return
	}

	e.mu.Lock()
	kind := Select(&e.selector)
	a := newAnimation(kind, bitmap, e.clock.Now(), e.duration)
	e.active = append(e.active, a)
	size := len(e.active)
	invalidate := e.invalidate
	e.mu.Unlock()

	e.logger.Debug("animation started",
		"id", a.ID, "kind", kind, "size", bitmap.Rect.Size(), "duration", a.duration, "active", size)

	if invalidate != nil {
		invalidate()
	}
}

// Render draws every animation in insertion order into dst, then retires
// finished animations from the front while more than minRetained remain. It
// reports whether any animation still wants frames.
func (e *Engine) Render(dst draw.Image, bound image.Rectangle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	hasMoreFrames := false
	for _, a := range e.active {
		if a.Draw(dst, bound, now, e.easing) {
			hasMoreFrames = true
		}
	}

	for len(e.active) > minRetained && !e.active[0].Active() {
		retired := e.active[0]
		e.active[0] = nil
		e.active = e.active[1:]
		retired.release()
		e.logger.Debug("animation retired", "id", retired.ID, "kind", retired.Kind(), "active", len(e.active))
	}

	return hasMoreFrames
}

// Close releases every bitmap still held by the engine.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range e.active {
		a.release()
	}
	e.active = nil
}
