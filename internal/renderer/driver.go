package renderer

import (
	"context"
	"image"
	"image/draw"
	"log/slog"
	"sync"
	"time"

	"github.com/ivlev/slidereveal/internal/system"
)

// PresentFunc hands a finished frame to the host. The frame is reused by the
// driver for the next render, so hosts must copy what they keep.
type PresentFunc func(frame *image.RGBA) error

// Driver requests frames from a Renderable while it reports activity and
// goes idle as soon as it does not, until Invalidate is called again.
type Driver struct {
	target   Renderable
	present  PresentFunc
	interval time.Duration
	logger   *slog.Logger

	wake chan struct{}

	mu      sync.Mutex
	bound   image.Rectangle
	surface *image.RGBA
	frames  int64
}

// NewDriver paces frames at interval. A zero interval renders back to back.
func NewDriver(target Renderable, present PresentFunc, interval time.Duration, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		target:   target,
		present:  present,
		interval: interval,
		logger:   logger,
		wake:     make(chan struct{}, 1),
	}
}

// Invalidate asks for at least one more frame. It never blocks and repeated
// calls before the next frame collapse into one.
func (d *Driver) Invalidate() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Resize sets the drawable area and schedules a frame.
func (d *Driver) Resize(width, height int) {
	d.mu.Lock()
	d.bound = image.Rect(0, 0, width, height)
	d.mu.Unlock()
	d.Invalidate()
}

// Frames returns how many frames have been presented.
func (d *Driver) Frames() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// Run blocks until ctx is done or presenting fails.
func (d *Driver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.release()
			return nil
		case <-d.wake:
		}

		var ticker *time.Ticker
		if d.interval > 0 {
			ticker = time.NewTicker(d.interval)
		}
		err := d.animate(ctx, ticker)
		if ticker != nil {
			ticker.Stop()
		}
		if err != nil {
			d.release()
			return err
		}
	}
}

func (d *Driver) animate(ctx context.Context, ticker *time.Ticker) error {
	for {
		active, err := d.Frame()
		if err != nil {
			return err
		}
		if !active {
			d.logger.Debug("frame driver idle", "frames", d.Frames())
			return nil
		}

		if ticker == nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Frame renders and presents exactly one frame, returning whether the target
// wants another one.
func (d *Driver) Frame() (bool, error) {
	d.mu.Lock()
	bound := d.bound
	if bound.Empty() {
		d.mu.Unlock()
		return false, nil
	}
	if d.surface == nil || d.surface.Rect != bound {
		system.PutImage(d.surface)
		d.surface = system.GetImage(bound)
		draw.Draw(d.surface, bound, image.Transparent, image.Point{}, draw.Src)
	}
	surface := d.surface
	d.frames++
	d.mu.Unlock()

	active := d.target.Render(surface, bound)
	if d.present != nil {
		if err := d.present(surface); err != nil {
			return false, err
		}
	}
	return active, nil
}

func (d *Driver) release() {
	d.mu.Lock()
	system.PutImage(d.surface)
	d.surface = nil
	d.mu.Unlock()
}
