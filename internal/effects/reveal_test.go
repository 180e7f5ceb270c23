package effects

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	black = color.RGBA{A: 255}
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func renderAt(t *testing.T, kind Kind, progress float64) *image.RGBA {
	t.Helper()
	// source smaller than the bound, so the scaled layer path is exercised
	r := New(kind, solid(50, 30, red))
	bound := image.Rect(0, 0, 100, 60)
	r.SetBound(bound)

	dst := solid(100, 60, black)
	r.Render(dst, progress)
	return dst
}

func TestRadialReveal(t *testing.T) {
	dst := renderAt(t, Radial, 0)
	if got := dst.RGBAAt(50, 30); got != black {
		t.Errorf("progress 0: expected nothing drawn at center, got %v", got)
	}

	dst = renderAt(t, Radial, 1)
	for _, p := range []image.Point{{0, 0}, {99, 0}, {0, 59}, {99, 59}, {50, 30}} {
		if got := dst.RGBAAt(p.X, p.Y); got != red {
			t.Errorf("progress 1: expected full reveal at %v, got %v", p, got)
		}
	}

	dst = renderAt(t, Radial, 0.4)
	if got := dst.RGBAAt(50, 30); got != red {
		t.Errorf("progress 0.4: expected center revealed, got %v", got)
	}
	if got := dst.RGBAAt(0, 0); got != black {
		t.Errorf("progress 0.4: expected corner hidden, got %v", got)
	}
}

func TestLinearReveal(t *testing.T) {
	tests := []struct {
		kind     Kind
		progress float64
		shown    []image.Point
		hidden   []image.Point
	}{
		{LinearHorizontal, 0, nil, []image.Point{{0, 0}, {50, 30}, {99, 59}}},
		{LinearHorizontal, 1, []image.Point{{0, 0}, {50, 30}, {99, 59}}, nil},
		{LinearHorizontal, 0.5, nil, []image.Point{{99, 0}, {99, 59}}},
		{LinearVertical, 1, []image.Point{{0, 0}, {50, 30}, {99, 59}}, nil},
		{LinearVertical, 0.5, nil, []image.Point{{0, 59}, {99, 59}}},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			dst := renderAt(t, tt.kind, tt.progress)
			for _, p := range tt.shown {
				if got := dst.RGBAAt(p.X, p.Y); got != red {
					t.Errorf("progress %.1f: expected %v revealed, got %v", tt.progress, p, got)
				}
			}
			for _, p := range tt.hidden {
				if got := dst.RGBAAt(p.X, p.Y); got != black {
					t.Errorf("progress %.1f: expected %v hidden, got %v", tt.progress, p, got)
				}
			}
		})
	}
}

func TestLinearFadesBehindBand(t *testing.T) {
	dst := renderAt(t, LinearHorizontal, 0.5)
	// x=0 is behind the band: bitmap at roughly half alpha over black
	got := dst.RGBAAt(0, 30)
	if got.R < 100 || got.R > 155 {
		t.Errorf("Expected half faded red behind the band, got %v", got)
	}
}

func TestRenderWithoutSurface(t *testing.T) {
	r := New(Radial, solid(10, 10, red))
	r.SetBound(image.Rect(0, 0, 10, 10))
	if r.Render(nil, 0.5) {
		t.Error("Render with nil surface should report no extra frames")
	}

	empty := New(LinearVertical, nil)
	empty.SetBound(image.Rect(0, 0, 10, 10))
	dst := solid(10, 10, black)
	if empty.Render(dst, 1) {
		t.Error("Render without bitmap should report no extra frames")
	}
	if got := dst.RGBAAt(5, 5); got != black {
		t.Errorf("Render without bitmap drew %v", got)
	}
}

func TestSetBoundRescales(t *testing.T) {
	r := New(Radial, solid(10, 10, red))
	r.SetBound(image.Rect(0, 0, 40, 20))
	if r.layer.Bounds() != image.Rect(0, 0, 40, 20) {
		t.Fatalf("Unexpected layer bounds %v", r.layer.Bounds())
	}
	first := r.layer
	r.SetBound(image.Rect(0, 0, 40, 20))
	if r.layer != first {
		t.Error("Unchanged bound must keep the cached layer")
	}
	r.SetBound(image.Rect(5, 5, 25, 15))
	if r.layer.Bounds() != image.Rect(5, 5, 25, 15) {
		t.Errorf("Expected rescaled layer, got %v", r.layer.Bounds())
	}

	r.Release()
	if r.Bitmap() != nil || r.layer != nil {
		t.Error("Release must drop bitmap and layer")
	}
}

func TestBandProfile(t *testing.T) {
	tests := []struct {
		t, want float64
	}{
		{-0.1, 0}, {0, 0}, {0.2, 0.5}, {0.5, 1}, {0.8, 0.5}, {1, 0}, {1.5, 0},
	}
	for _, tt := range tests {
		if got := bandProfile(tt.t); got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("bandProfile(%.1f) = %.3f, want %.3f", tt.t, got, tt.want)
		}
	}
}
