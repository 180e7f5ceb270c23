package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"
)

// Listener receives the full path list, newest capture first.
type Listener func(paths []string)

// Index is the media index: the photos found under a directory, ordered by
// capture time descending. Run publishes the list once at start and again
// whenever NotifyDirty is called or the periodic poll sees a different list.
type Index struct {
	root     string
	interval time.Duration
	logger   *slog.Logger
	dirty    chan struct{}

	listener Listener
	last     []string
}

// NewIndex watches root, which may be a directory or a single file. A zero
// interval disables polling; rescans then only happen on NotifyDirty.
func NewIndex(root string, interval time.Duration, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		root:     root,
		interval: interval,
		logger:   logger,
		dirty:    make(chan struct{}, 1),
	}
}

// SetListener must be called before Run.
func (x *Index) SetListener(fn Listener) {
	x.listener = fn
}

// NotifyDirty forces a rescan and a publish, even if nothing changed.
func (x *Index) NotifyDirty() {
	select {
	case x.dirty <- struct{}{}:
	default:
	}
}

func (x *Index) Run(ctx context.Context) error {
	x.refresh(true)

	var tick <-chan time.Time
	if x.interval > 0 {
		ticker := time.NewTicker(x.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-x.dirty:
			x.refresh(true)
		case <-tick:
			x.refresh(false)
		}
	}
}

func (x *Index) refresh(force bool) {
	paths, err := x.Scan()
	if err != nil {
		x.logger.Warn("media scan failed", "root", x.root, "err", err)
		return
	}
	if !force && slices.Equal(paths, x.last) {
		return
	}
	x.last = paths
	x.logger.Info("media index updated", "root", x.root, "images", len(paths))
	if x.listener != nil {
		x.listener(paths)
	}
}

type entry struct {
	path     string
	captured time.Time
}

// Scan lists supported files under the root, newest first. The file
// modification time stands in for the capture time.
func (x *Index) Scan() ([]string, error) {
	fi, err := os.Stat(x.root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		if !IsSupported(x.root) {
			return nil, fmt.Errorf("unsupported file type: %s", x.root)
		}
		return []string{x.root}, nil
	}

	dirEntries, err := os.ReadDir(x.root)
	if err != nil {
		return nil, err
	}

	var entries []entry
	for _, de := range dirEntries {
		if de.IsDir() || !IsSupported(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entry{
			path:     filepath.Join(x.root, de.Name()),
			captured: info.ModTime(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].captured.Equal(entries[j].captured) {
			return entries[i].path < entries[j].path
		}
		return entries[i].captured.After(entries[j].captured)
	})

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	return paths, nil
}
