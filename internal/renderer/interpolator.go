package renderer

import (
	"time"

	"github.com/tanema/gween/ease"
)

// DefaultEasing decelerates into the final value. OutCubic equals a
// decelerate interpolator with factor 1.5: 1-(1-t)^3.
var DefaultEasing ease.TweenFunc = ease.OutCubic

// Timing is the per frame state of one animation.
type Timing struct {
	Elapsed  time.Duration // clamped to [0, duration]
	Progress float64       // eased, in [0, 1]
	Active   bool          // raw elapsed <= duration
}

// Evaluate clamps elapsed into [0, duration] and eases the normalized
// progress. Active is decided on the raw elapsed time so the final frame is
// drawn once at (or slightly past) full progress.
func Evaluate(elapsed, duration time.Duration, fn ease.TweenFunc) Timing {
	active := elapsed <= duration
	if duration <= 0 {
		return Timing{Progress: 1, Active: active && elapsed >= 0}
	}

	clamped := elapsed
	if clamped > duration {
		clamped = duration
	}
	if clamped < 0 {
		clamped = 0
	}

	return Timing{
		Elapsed:  clamped,
		Progress: Ease(float64(clamped)/float64(duration), fn),
		Active:   active,
	}
}

// Ease maps t in [0, 1] through fn. Nil fn means linear.
func Ease(t float64, fn ease.TweenFunc) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	if fn == nil {
		return t
	}
	return float64(fn(float32(t), 0, 1, 1))
}
