package decoder

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ivlev/slidereveal/internal/config"
	"github.com/ivlev/slidereveal/internal/system"
)

// DeliverFunc receives every decode result on the worker goroutine. A nil
// bitmap means the path could not be decoded. It must not block.
type DeliverFunc func(bitmap *image.RGBA)

// Worker decodes queued paths one at a time, in FIFO order, on a single
// background goroutine started with Run.
type Worker struct {
	decoder Decoder
	logger  *slog.Logger

	mu       sync.Mutex
	queue    []string
	viewport Viewport
	clamp    config.ClampMode
	deliver  DeliverFunc
	running  bool

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func NewWorker(dec Decoder, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		decoder: dec,
		logger:  logger,
		clamp:   config.ClampCrop,
		running: true,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// SetDeliver installs the result callback. Nil detaches the listener; results
// decoded without a listener are recycled.
func (w *Worker) SetDeliver(fn DeliverFunc) {
	w.mu.Lock()
	w.deliver = fn
	w.mu.Unlock()
}

// SetViewport applies to decodes started after the call.
func (w *Worker) SetViewport(width, height int) {
	w.mu.Lock()
	w.viewport = Viewport{Width: width, Height: height}
	w.mu.Unlock()
}

func (w *Worker) Viewport() Viewport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewport
}

// SetClamp stores the fit policy. Every mode currently decodes as crop.
func (w *Worker) SetClamp(mode config.ClampMode) {
	w.mu.Lock()
	w.clamp = mode
	w.mu.Unlock()
}

// Enqueue adds path to the queue. Blank paths and paths arriving after
// Terminate are ignored.
func (w *Worker) Enqueue(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.queue = append(w.queue, path)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Terminate drops pending requests and makes Run return once the decode in
// flight, if any, has finished. Safe to call more than once.
func (w *Worker) Terminate() {
	w.once.Do(func() {
		w.mu.Lock()
		w.running = false
		w.queue = nil
		w.mu.Unlock()
		close(w.done)
	})
}

// Pending returns the number of requests not started yet.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Run is the worker loop. It sleeps while the queue is empty and returns nil
// after Terminate or when ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	defer w.logger.Debug("decode worker stopped")

	for {
		path, ok := w.next()
		if ok {
			w.process(path)
			continue
		}
		if !w.Running() {
			return nil
		}

		select {
		case <-ctx.Done():
			w.Terminate()
			return nil
		case <-w.done:
		case <-w.wake:
		}
	}
}

func (w *Worker) next() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running || len(w.queue) == 0 {
		return "", false
	}
	path := w.queue[0]
	w.queue[0] = ""
	w.queue = w.queue[1:]
	return path, true
}

func (w *Worker) process(path string) {
	if !w.shouldDecode(path) {
		return
	}

	w.mu.Lock()
	vp := w.viewport
	clamp := w.clamp
	w.mu.Unlock()

	start := time.Now()
	bitmap, err := w.decoder.Decode(path, vp)
	if err != nil {
		w.logger.Warn("decode failed", "path", path, "err", err)
		bitmap = nil
	} else if bitmap != nil {
		w.logger.Debug("decoded", "path", path, "size", bitmap.Rect.Size(),
			"viewport", vp, "clamp", clamp, "took", time.Since(start))
	}

	w.mu.Lock()
	deliver := w.deliver
	w.mu.Unlock()

	if deliver == nil {
		system.PutImage(bitmap)
		return
	}
	deliver(bitmap)
}

// shouldDecode is where deduplication or cancellation of stale requests
// would go. Every request is decoded today.
func (w *Worker) shouldDecode(string) bool {
	return true
}
