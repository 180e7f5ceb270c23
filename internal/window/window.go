package window

import (
	"context"
	"image"
	"image/draw"
	"log/slog"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ivlev/slidereveal/internal/renderer"
	"github.com/ivlev/slidereveal/internal/system"
)

// Sizer receives the laid out window size.
type Sizer interface {
	SizeChanged(width, height int)
}

var (
	advanceKeys = []ebiten.Key{ebiten.KeySpace, ebiten.KeyArrowRight, ebiten.KeyN, ebiten.KeyEnter}
	quitKeys    = []ebiten.Key{ebiten.KeyEscape, ebiten.KeyQ}
)

// Game is the ebiten host. The target is rendered only while it reports an
// active animation or after Invalidate; otherwise the last frame is reused.
type Game struct {
	ctx     context.Context
	target  renderer.Renderable
	sizer   Sizer
	advance func()
	logger  *slog.Logger

	dirty   atomic.Bool
	size    image.Point
	surface *image.RGBA
	frame   *ebiten.Image
	pressed map[ebiten.Key]bool
}

// New builds the game. Update returns ebiten.Termination once ctx is done.
func New(ctx context.Context, target renderer.Renderable, sizer Sizer, advance func(), logger *slog.Logger) *Game {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Game{
		ctx:     ctx,
		target:  target,
		sizer:   sizer,
		advance: advance,
		logger:  logger,
		pressed: make(map[ebiten.Key]bool),
	}
	g.dirty.Store(true)
	return g
}

// Invalidate requests a render on the next Draw. Safe from any goroutine.
func (g *Game) Invalidate() {
	g.dirty.Store(true)
}

// Run opens the window and blocks until it closes. It must be called from
// the main goroutine.
func Run(g *Game, title string, width, height int) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetScreenClearedEveryFrame(false)
	return ebiten.RunGame(g)
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if g.justPressed(quitKeys) {
		return ebiten.Termination
	}
	if g.justPressed(advanceKeys) && g.advance != nil {
		g.advance()
	}
	return nil
}

// justPressed reports a key that went down since the previous tick.
func (g *Game) justPressed(keys []ebiten.Key) bool {
	hit := false
	for _, k := range keys {
		down := ebiten.IsKeyPressed(k)
		if down && !g.pressed[k] {
			hit = true
		}
		g.pressed[k] = down
	}
	return hit
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.size.X <= 0 || g.size.Y <= 0 {
		return
	}
	if g.frame == nil || g.frame.Bounds().Size() != g.size {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(g.size.X, g.size.Y)
		g.dirty.Store(true)
	}
	if g.dirty.Swap(false) {
		if g.renderFrame() {
			g.dirty.Store(true)
		}
		g.frame.WritePixels(g.surface.Pix)
	}
	screen.DrawImage(g.frame, nil)
}

// renderFrame draws the target into the RGBA surface and reports whether it
// is still animating.
func (g *Game) renderFrame() bool {
	bound := image.Rectangle{Max: g.size}
	if g.surface == nil || g.surface.Rect != bound {
		system.PutImage(g.surface)
		g.surface = system.GetImage(bound)
		draw.Draw(g.surface, bound, image.Black, image.Point{}, draw.Src)
	}
	return g.target.Render(g.surface, bound)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := image.Pt(outsideWidth, outsideHeight)
	if size != g.size {
		g.size = size
		g.logger.Debug("window resized", "width", size.X, "height", size.Y)
		if g.sizer != nil {
			g.sizer.SizeChanged(size.X, size.Y)
		}
		g.dirty.Store(true)
	}
	return outsideWidth, outsideHeight
}

// Close returns the surface to the pool.
func (g *Game) Close() {
	system.PutImage(g.surface)
	g.surface = nil
}
