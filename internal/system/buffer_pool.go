package system

import (
	"image"
	"sync"
)

// bufferPool reuses decoded bitmaps, frame surfaces and mask buffers keyed by
// their size, so retired slides do not have to be collected before the next
// decode of the same viewport.
type bufferPool[T any] struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex
	alloc func(image.Rectangle) T
}

var (
	rgbaPool = &bufferPool[*image.RGBA]{
		pools: make(map[image.Point]*sync.Pool),
		alloc: image.NewRGBA,
	}
	alphaPool = &bufferPool[*image.Alpha]{
		pools: make(map[image.Point]*sync.Pool),
		alloc: image.NewAlpha,
	}
)

// GetImage returns an RGBA buffer covering rect. Pixel content is undefined.
func GetImage(rect image.Rectangle) *image.RGBA {
	img := rgbaPool.get(rect)
	img.Rect = rect
	return img
}

// PutImage hands a buffer back once nothing references it anymore.
func PutImage(img *image.RGBA) {
	if img == nil {
		return
	}
	rgbaPool.put(img.Rect, img)
}

// GetMask returns an Alpha buffer covering rect. Pixel content is undefined.
func GetMask(rect image.Rectangle) *image.Alpha {
	m := alphaPool.get(rect)
	m.Rect = rect
	return m
}

func PutMask(m *image.Alpha) {
	if m == nil {
		return
	}
	alphaPool.put(m.Rect, m)
}

func (p *bufferPool[T]) get(rect image.Rectangle) T {
	key := rect.Size()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[key]
		if !exists {
			size := image.Rectangle{Max: key}
			pool = &sync.Pool{
				New: func() interface{} {
					return p.alloc(size)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(T)
}

func (p *bufferPool[T]) put(rect image.Rectangle, v T) {
	if rect.Empty() {
		return
	}
	key := rect.Size()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(v)
	}
}
