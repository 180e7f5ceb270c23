package effects

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ivlev/slidereveal/internal/system"
)

// Kind selects the reveal mask.
type Kind int

const (
	Radial Kind = iota
	LinearHorizontal
	LinearVertical
)

func (k Kind) String() string {
	switch k {
	case Radial:
		return "radial"
	case LinearHorizontal:
		return "linear-horizontal"
	case LinearVertical:
		return "linear-vertical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	// radialFeather positions the soft edge of the radial mask: opaque up to
	// r*(2-f), transparent from r*(1+f).
	radialFeather = 0.8
	// bandWidth is the swept band size relative to the sweep dimension.
	bandWidth = 0.2
	// bandSolid is where the band profile reaches full opacity.
	bandSolid = 0.4
)

// Reveal renders one bitmap through a progress driven mask. It keeps only
// geometry derived from the bound: the bitmap scaled to fill the bound and a
// mask buffer of the same size.
type Reveal struct {
	kind   Kind
	bitmap *image.RGBA
	bound  image.Rectangle
	layer  *image.RGBA
	mask   *image.Alpha
}

// New wraps bitmap. The Reveal owns the bitmap from now on.
func New(kind Kind, bitmap *image.RGBA) *Reveal {
	return &Reveal{kind: kind, bitmap: bitmap}
}

func (r *Reveal) Kind() Kind { return r.kind }

func (r *Reveal) Bitmap() *image.RGBA { return r.bitmap }

func (r *Reveal) Bound() image.Rectangle { return r.bound }

// SetBound moves the reveal to a new drawable area. The scaled layer is only
// rebuilt when the bound actually changes.
func (r *Reveal) SetBound(bound image.Rectangle) {
	if bound == r.bound && (r.layer != nil || r.bitmap == nil) {
		return
	}
	r.bound = bound
	r.releaseLayer()

	if r.bitmap == nil || bound.Empty() || r.bitmap.Rect.Empty() {
		return
	}

	r.layer = system.GetImage(bound)
	draw.Draw(r.layer, bound, image.Transparent, image.Point{}, draw.Src)
	draw.ApproxBiLinear.Transform(r.layer, scaleTransform(r.bitmap.Rect, bound), r.bitmap, r.bitmap.Rect, draw.Src, nil)
	r.mask = system.GetMask(bound)
}

// scaleTransform maps src onto dst, stretching both axes independently.
func scaleTransform(src, dst image.Rectangle) f64.Aff3 {
	sx := float64(dst.Dx()) / float64(src.Dx())
	sy := float64(dst.Dy()) / float64(src.Dy())
	return f64.Aff3{
		sx, 0, float64(dst.Min.X) - sx*float64(src.Min.X),
		0, sy, float64(dst.Min.Y) - sy*float64(src.Min.Y),
	}
}

// Render composites the bitmap onto dst at the given eased progress. The
// result is the bitmap limited to the mask (source-in) laid over dst. A nil
// dst draws nothing. Render never asks for extra frames on its own, so it
// always returns false; activity is decided by the animation clock.
func (r *Reveal) Render(dst draw.Image, progress float64) bool {
	if dst == nil || r.bitmap == nil || r.layer == nil {
		return false
	}

	switch r.kind {
	case Radial:
		r.radialMask(progress)
	case LinearHorizontal:
		r.linearMask(progress, true)
	case LinearVertical:
		r.linearMask(progress, false)
	default:
		return false
	}

	draw.DrawMask(dst, r.bound, r.layer, r.bound.Min, r.mask, r.bound.Min, draw.Over)
	return false
}

// Release hands the bitmap and the cached buffers back to the pool. The
// Reveal must not be used afterwards.
func (r *Reveal) Release() {
	r.releaseLayer()
	system.PutImage(r.bitmap)
	r.bitmap = nil
}

func (r *Reveal) releaseLayer() {
	system.PutImage(r.layer)
	system.PutMask(r.mask)
	r.layer = nil
	r.mask = nil
}

func (r *Reveal) radialMask(progress float64) {
	w := float64(r.bound.Dx())
	h := float64(r.bound.Dy())
	cx, cy := w*0.5, h*0.5
	halfDiagonal := math.Hypot(w, h) * 0.5
	inner := progress * halfDiagonal * (2 - radialFeather)
	outer := progress * halfDiagonal * (1 + radialFeather)

	m := r.mask
	for y := 0; y < r.bound.Dy(); y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+r.bound.Dx()]
		dy := float64(y) + 0.5 - cy
		for x := range row {
			dx := float64(x) + 0.5 - cx
			row[x] = ramp(math.Hypot(dx, dy), inner, outer)
		}
	}
}

// ramp is opaque up to inner and fades linearly to transparent at outer.
func ramp(d, inner, outer float64) uint8 {
	if d >= outer {
		return 0
	}
	if d <= inner {
		return 0xff
	}
	return uint8((outer-d)/(outer-inner)*255 + 0.5)
}

// linearMask sweeps a soft band across the bound. The band is drawn at full
// opacity and everything from the origin to the band's far edge is drawn at
// the current progress as alpha, so the picture fades in behind the band.
func (r *Reveal) linearMask(progress float64, horizontal bool) {
	dim := r.bound.Dy()
	if horizontal {
		dim = r.bound.Dx()
	}
	fdim := float64(dim)
	center := progress*fdim*(1+bandWidth) - fdim*bandWidth*0.5
	bandStart := center - fdim*bandWidth*0.5
	bandEnd := center + fdim*bandWidth*0.5
	clip := int(math.Round(bandEnd))

	profile := make([]uint8, dim)
	for u := range profile {
		band := bandProfile((float64(u) + 0.5 - bandStart) / (bandEnd - bandStart))
		a := band
		if u < clip {
			a = progress + band*(1-progress)
		}
		profile[u] = uint8(math.Min(1, math.Max(0, a))*255 + 0.5)
	}

	m := r.mask
	for y := 0; y < r.bound.Dy(); y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+r.bound.Dx()]
		if horizontal {
			copy(row, profile)
			continue
		}
		for x := range row {
			row[x] = profile[y]
		}
	}
}

// bandProfile is the 5 stop gradient across the band:
// transparent, opaque, opaque, opaque, transparent at 0, .4, .5, .6, 1.
func bandProfile(t float64) float64 {
	switch {
	case t <= 0 || t >= 1 || math.IsNaN(t):
		return 0
	case t < bandSolid:
		return t / bandSolid
	case t > 1-bandSolid:
		return (1 - t) / bandSolid
	default:
		return 1
	}
}
