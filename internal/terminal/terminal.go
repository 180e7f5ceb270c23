package terminal

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/gdamore/tcell/v2"
)

// halfBlock paints the upper pixel as foreground and the lower as background,
// so one cell shows two rows.
const halfBlock = '▀'

// Canvas is the part of tcell.Screen the painter draws through.
type Canvas interface {
	Size() (int, int)
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	Show()
}

// Actions are the callbacks keyboard and resize events map to.
type Actions struct {
	Advance func()
	Resize  func(width, height int)
	Quit    func()
}

// Host runs a tcell screen. Frames arrive through Present, input is read in
// Run.
type Host struct {
	screen  tcell.Screen
	actions Actions
	logger  *slog.Logger
}

// New initializes the terminal. Fini is called by Run on exit.
func New(actions Actions, logger *slog.Logger) (*Host, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal init: %w", err)
	}
	return newHost(screen, actions, logger), nil
}

func newHost(screen tcell.Screen, actions Actions, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	screen.HideCursor()
	screen.Clear()
	return &Host{screen: screen, actions: actions, logger: logger}
}

// PixelSize is the drawable area in pixels: two per cell vertically.
func (h *Host) PixelSize() (int, int) {
	w, rows := h.screen.Size()
	return w, rows * 2
}

// Present paints frame and flushes the screen. It matches
// renderer.PresentFunc.
func (h *Host) Present(frame *image.RGBA) error {
	Paint(h.screen, frame)
	return nil
}

// Run reads events until ctx is done or the user quits.
func (h *Host) Run(ctx context.Context) error {
	defer h.screen.Fini()

	events := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			// nil once the screen is finalized
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	h.resized()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if h.handle(ev) {
				h.call(h.actions.Quit)
				return nil
			}
		}
	}
}

// handle dispatches one event and reports whether the user asked to quit.
func (h *Host) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRight, tcell.KeyEnter:
			h.call(h.actions.Advance)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q', 'Q':
				return true
			case ' ', 'n', 'N':
				h.call(h.actions.Advance)
			}
		}
	case *tcell.EventResize:
		h.screen.Sync()
		h.resized()
	}
	return false
}

func (h *Host) resized() {
	w, ph := h.PixelSize()
	h.logger.Debug("terminal resized", "width", w, "height", ph)
	if h.actions.Resize != nil {
		h.actions.Resize(w, ph)
	}
}

func (h *Host) call(fn func()) {
	if fn != nil {
		fn()
	}
}

// Paint maps frame onto the canvas, two pixel rows per cell. Cells outside
// the frame are painted black.
func Paint(c Canvas, frame *image.RGBA) {
	cols, rows := c.Size()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := pixel(frame, x, 2*y)
			bottom := pixel(frame, x, 2*y+1)
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			c.SetContent(x, y, halfBlock, nil, style)
		}
	}
	c.Show()
}

func pixel(frame *image.RGBA, x, y int) tcell.Color {
	if frame == nil {
		return tcell.ColorBlack
	}
	p := image.Pt(frame.Rect.Min.X+x, frame.Rect.Min.Y+y)
	if !p.In(frame.Rect) {
		return tcell.ColorBlack
	}
	c := frame.RGBAAt(p.X, p.Y)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
