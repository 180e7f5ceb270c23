package decoder

import (
	"image"
	"math"
)

// Viewport is the size decoded bitmaps are fitted to. A zero dimension means
// "not laid out yet" and disables cropping.
type Viewport struct {
	Width, Height int
}

func (v Viewport) IsSet() bool {
	return v.Width > 0 && v.Height > 0
}

// CropRegion returns the centered part of a width x height source that has
// the viewport's aspect ratio. Wider sources lose their left and right edges,
// taller ones their top and bottom.
func CropRegion(width, height int, vp Viewport) image.Rectangle {
	if !vp.IsSet() || width <= 0 || height <= 0 {
		return image.Rect(0, 0, width, height)
	}

	srcW, srcH := float64(width), float64(height)
	dstW, dstH := float64(vp.Width), float64(vp.Height)

	if srcW/srcH > dstW/dstH {
		cropW := srcH / dstH * dstW
		left := int((srcW - cropW) * 0.5)
		right := int((srcW + cropW) * 0.5)
		return image.Rect(left, 0, right, height)
	}

	cropH := srcW / dstW * dstH
	top := int((srcH - cropH) * 0.5)
	bottom := int((srcH + cropH) * 0.5)
	return image.Rect(0, top, width, bottom)
}

// SampleSize is the integer downsample factor used with CropRegion: the
// rounded ratio of the source dimension kept whole by the crop to the matching
// viewport dimension, never below 1.
func SampleSize(width, height int, vp Viewport) int {
	if !vp.IsSet() || width <= 0 || height <= 0 {
		return 1
	}

	srcW, srcH := float64(width), float64(height)
	dstW, dstH := float64(vp.Width), float64(vp.Height)

	ratio := srcW / dstW
	if srcW/srcH > dstW/dstH {
		ratio = srcH / dstH
	}

	sample := int(math.Round(ratio))
	if sample < 1 {
		sample = 1
	}
	return sample
}

// sampleBounds is the size of a crop decoded at the given sample size.
func sampleBounds(crop image.Rectangle, sample int) image.Rectangle {
	w := crop.Dx() / sample
	h := crop.Dy() / sample
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return image.Rect(0, 0, w, h)
}
