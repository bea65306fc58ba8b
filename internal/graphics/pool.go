package graphics

import (
	"image"
	"sync"
)

// FramePool pools *image.RGBA instances for one resolution. A request for a
// different size drops everything pooled so far.
type FramePool struct {
	mu   sync.Mutex
	pool *sync.Pool
	w, h int
}

// current returns the pool for w x h, replacing it when the size changed.
// The pointer swap happens under mu; callers use the returned pool unlocked.
func (p *FramePool) current(w, h int) (pool *sync.Pool, fresh bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool != nil && p.w == w && p.h == h {
		return p.pool, false
	}
	p.w = w
	p.h = h
	p.pool = &sync.Pool{}
	return p.pool, true
}

// Get returns a w x h image. Its contents are undefined.
func (p *FramePool) Get(w, h int) *image.RGBA {
	pool, fresh := p.current(w, h)
	if !fresh {
		if v := pool.Get(); v != nil {
			return v.(*image.RGBA)
		}
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// Put returns img to the pool if it matches the current resolution.
func (p *FramePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	b := img.Bounds()
	p.mu.Lock()
	var pool *sync.Pool
	if p.pool != nil && p.w == b.Dx() && p.h == b.Dy() {
		pool = p.pool
	}
	p.mu.Unlock()
	if pool != nil {
		pool.Put(img)
	}
}

// Clone copies src into an image drawn from the pool.
func (p *FramePool) Clone(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := p.Get(b.Dx(), b.Dy())
	rowBytes := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		so := y * src.Stride
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowBytes], src.Pix[so:so+rowBytes])
	}
	return dst
}
