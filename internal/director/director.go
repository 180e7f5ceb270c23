package director

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Target receives the paths the director picks. The sliding image view
// implements it.
type Target interface {
	SetNextImage(path string)
}

// Director walks the media index list, newest photo first, and hands the
// next path to the view every time the user advances.
type Director struct {
	target Target
	logger *slog.Logger

	mu      sync.Mutex
	paths   []string
	counter int
}

func New(target Target, logger *slog.Logger) *Director {
	if logger == nil {
		logger = slog.Default()
	}
	return &Director{target: target, logger: logger}
}

// OnIndexLoaded replaces the list with a fresh scan and advances once. The
// position is kept where possible; a list that shrank below it pulls the
// position back to its last entry.
func (d *Director) OnIndexLoaded(paths []string) {
	d.mu.Lock()
	n := len(paths)
	if d.counter > n {
		d.counter = n - 1
	}
	if d.counter < 0 {
		d.counter = 0
	}
	d.paths = paths
	d.mu.Unlock()

	d.Next()
}

// Next queues the photo at the current position and moves past it. It
// returns false when the list is empty or exhausted.
func (d *Director) Next() bool {
	d.mu.Lock()
	if len(d.paths) == 0 {
		d.mu.Unlock()
		d.logger.Info("no photo found")
		return false
	}
	if d.counter >= len(d.paths) {
		d.mu.Unlock()
		d.logger.Debug("end of media list", "total", len(d.paths))
		return false
	}
	path := d.paths[d.counter]
	d.counter++
	index, total := d.counter, len(d.paths)
	d.mu.Unlock()

	d.logger.Info("next photo", "path", path, "index", index, "total", total)
	d.target.SetNextImage(path)
	return true
}

// Position returns how many photos were shown and the list size.
func (d *Director) Position() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counter, len(d.paths)
}

// Autoplay advances every interval until ctx is done. A non-positive
// interval returns immediately.
func (d *Director) Autoplay(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.Next()
		}
	}
}
