package decoder

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/ivlev/slidereveal/internal/source"
	"github.com/ivlev/slidereveal/internal/system"
)

// Decoder turns a path into a bitmap fitted to the viewport.
type Decoder interface {
	Decode(path string, vp Viewport) (*image.RGBA, error)
}

// FileDecoder decodes images (and the first page of PDF documents) from disk.
type FileDecoder struct {
	DPI int
}

// Decode reads path and, when the viewport is set, keeps only the centered
// crop with the viewport's aspect ratio, downsampled by SampleSize. Without a
// viewport the image is returned at full resolution. Output is always RGBA.
func (d *FileDecoder) Decode(path string, vp Viewport) (img *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("decode %s: panic: %v", path, r)
		}
	}()

	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	decoded, err := src.RenderPage(0, d.DPI)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return Fit(decoded, vp), nil
}

// Fit crops and downsamples src for vp into a pooled RGBA bitmap at origin 0.
func Fit(src image.Image, vp Viewport) *image.RGBA {
	b := src.Bounds()
	if !vp.IsSet() {
		dst := system.GetImage(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	crop := CropRegion(b.Dx(), b.Dy(), vp).Add(b.Min)
	sample := SampleSize(b.Dx(), b.Dy(), vp)
	dst := system.GetImage(sampleBounds(crop, sample))
	if sample == 1 {
		draw.Draw(dst, dst.Bounds(), src, crop.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	}
	return dst
}
