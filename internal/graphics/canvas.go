package graphics

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

// Imager is implemented by textures whose pixels live in host memory.
type Imager interface {
	Image() *image.RGBA
}

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Canvas is a software render target implementing capture.DrawContext.
// Matrices compose so that the most recent Translate or Rotate applies first
// to drawn geometry.
type Canvas struct {
	img    *image.RGBA
	m      f64.Aff3
	stack  []f64.Aff3
	effect capture.Effect
}

var _ capture.DrawContext = (*Canvas)(nil)

// NewCanvas returns a transparent w x h canvas.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{}
	c.Resize(w, h)
	return c
}

// Resize prepares the canvas for a frame of w x h, clearing it and resetting
// the matrix stack. The backing image is reused when the size is unchanged.
func (c *Canvas) Resize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	if c.img == nil || c.img.Bounds().Dx() != w || c.img.Bounds().Dy() != h {
		c.img = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		clear(c.img.Pix)
	}
	c.m = identity
	c.stack = c.stack[:0]
	c.effect = capture.EffectDefault
}

// Image returns the render target. It is overwritten by the next Resize.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Matrix returns the current source-to-canvas transform.
func (c *Canvas) Matrix() f64.Aff3 { return c.m }

func (c *Canvas) SetEffect(e capture.Effect) { c.effect = e }

func (c *Canvas) PushMatrix() {
	c.stack = append(c.stack, c.m)
}

func (c *Canvas) PopMatrix() {
	if n := len(c.stack); n > 0 {
		c.m = c.stack[n-1]
		c.stack = c.stack[:n-1]
	}
}

func (c *Canvas) Translate(x, y float64) {
	c.m = mul(c.m, f64.Aff3{1, 0, x, 0, 1, y})
}

func (c *Canvas) Rotate(radians float64) {
	sin, cos := math.Sincos(radians)
	sin, cos = snap(sin), snap(cos)
	c.m = mul(c.m, f64.Aff3{cos, -sin, 0, sin, cos, 0})
}

// DrawSpriteSubregion draws the (x, y, w, h) part of tex at the origin of the
// current matrix. Textures that do not expose host pixels are skipped.
func (c *Canvas) DrawSpriteSubregion(tex capture.Texture, x, y int32, w, h uint32) {
	src, ok := tex.(Imager)
	if !ok || src.Image() == nil || w == 0 || h == 0 {
		return
	}
	img := src.Image()
	origin := img.Bounds().Min
	sx, sy := origin.X+int(x), origin.Y+int(y)
	sr := image.Rect(sx, sy, sx+int(w), sy+int(h)).Intersect(img.Bounds())
	if sr.Empty() {
		return
	}

	s2d := mul(c.m, f64.Aff3{1, 0, float64(-sx), 0, 1, float64(-sy)})
	c.transform(c.img, s2d, img, sr, draw.NearestNeighbor)
}

// DrawImage draws img with its top-left at (x, y) scaled by (scaleX,
// scaleY), clipped to clip in canvas coordinates. An empty clip means the
// whole canvas.
func (c *Canvas) DrawImage(img image.Image, x, y, scaleX, scaleY float64, clip image.Rectangle) {
	if img == nil {
		return
	}
	dst := c.img
	if !clip.Empty() {
		sub, ok := c.img.SubImage(clip).(*image.RGBA)
		if !ok || sub.Bounds().Empty() {
			return
		}
		dst = sub
	}

	b := img.Bounds()
	s2d := mul(c.m, f64.Aff3{scaleX, 0, x - scaleX*float64(b.Min.X), 0, scaleY, y - scaleY*float64(b.Min.Y)})

	var interp draw.Transformer = draw.NearestNeighbor
	if scaleX != 1 || scaleY != 1 {
		interp = draw.ApproxBiLinear
	}
	c.transform(dst, s2d, img, b, interp)
}

func (c *Canvas) transform(dst *image.RGBA, s2d f64.Aff3, src image.Image, sr image.Rectangle, t draw.Transformer) {
	op := draw.Over
	if c.effect == capture.EffectOpaque {
		op = draw.Src
	}

	// Integer translations take the plain copy path.
	if s2d[0] == 1 && s2d[1] == 0 && s2d[3] == 0 && s2d[4] == 1 &&
		s2d[2] == math.Trunc(s2d[2]) && s2d[5] == math.Trunc(s2d[5]) {
		dx, dy := int(s2d[2]), int(s2d[5])
		dr := sr.Add(image.Pt(dx, dy))
		draw.Draw(dst, dr, src, sr.Min, op)
		return
	}
	t.Transform(dst, s2d, src, sr, op, nil)
}

// mul returns the affine transform that applies b and then a.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

// snap removes the rounding residue of exact quarter turns.
func snap(v float64) float64 {
	const eps = 1e-12
	switch {
	case math.Abs(v) < eps:
		return 0
	case math.Abs(v-1) < eps:
		return 1
	case math.Abs(v+1) < eps:
		return -1
	}
	return v
}
