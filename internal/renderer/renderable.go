package renderer

import (
	"image"
	"image/draw"
)

// MeasureMode says how a host constrains one dimension.
type MeasureMode int

const (
	Unspecified MeasureMode = iota // no constraint, fall back to the screen
	Exactly                        // the host dictates the size
	AtMost                         // the size is an upper bound
)

// Spec constrains a single dimension.
type Spec struct {
	Mode MeasureMode
	Size int
}

// Constraints is what a host passes to Measure.
type Constraints struct {
	Width  Spec
	Height Spec
	Screen image.Point
}

// Renderable is the capability every host adapter drives: it measures itself
// against host constraints and renders one frame into a surface, reporting
// whether another frame is wanted.
type Renderable interface {
	Measure(c Constraints) image.Point
	Render(dst draw.Image, bound image.Rectangle) bool
}
