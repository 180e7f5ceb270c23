package engine

import (
	"image"
	"image/draw"
	"time"

	"github.com/google/uuid"
	"github.com/tanema/gween/ease"

	"github.com/ivlev/slidereveal/internal/effects"
	"github.com/ivlev/slidereveal/internal/renderer"
)

// Animation is one time bounded reveal of one bitmap.
type Animation struct {
	ID       string
	reveal   *effects.Reveal
	start    time.Time
	duration time.Duration
	active   bool
}

func newAnimation(kind effects.Kind, bitmap *image.RGBA, start time.Time, duration time.Duration) *Animation {
	return &Animation{
		ID:       uuid.NewString(),
		reveal:   effects.New(kind, bitmap),
		start:    start,
		duration: duration,
		active:   bitmap != nil,
	}
}

func (a *Animation) Kind() effects.Kind { return a.reveal.Kind() }

func (a *Animation) Duration() time.Duration { return a.duration }

// Active reports the result of the last Draw.
func (a *Animation) Active() bool { return a.active }

// Draw renders the animation at time now. The returned activity uses the
// unclamped elapsed time, so the frame at exactly the duration still counts
// as active. A nil dst only advances the activity state.
func (a *Animation) Draw(dst draw.Image, bound image.Rectangle, now time.Time, fn ease.TweenFunc) bool {
	if a.reveal.Bitmap() == nil {
		a.active = false
		return false
	}

	a.reveal.SetBound(bound)
	timing := renderer.Evaluate(now.Sub(a.start), a.duration, fn)
	active := timing.Active
	if dst != nil && a.reveal.Render(dst, timing.Progress) {
		active = true
	}
	a.active = active
	return active
}

func (a *Animation) release() {
	a.reveal.Release()
}
