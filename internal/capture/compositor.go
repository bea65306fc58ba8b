package capture

import "math"

// EffectiveSize returns the upright size of a capture rotated by rotation
// degrees. Width and height swap for 90 and 270.
func EffectiveSize(rotation int, capture Region) (width, height uint32) {
	if rotation%180 == 0 {
		return capture.Width, capture.Height
	}
	return capture.Height, capture.Width
}

// Transform is the translate-then-rotate applied before drawing the capture.
type Transform struct {
	TranslateX float64
	TranslateY float64
	// Radians about the Z axis.
	Radians float64
}

// Identity reports whether the transform has no effect.
func (t Transform) Identity() bool {
	return t == Transform{}
}

// DrawTransform returns the transform that presents a capture of the given
// size upright on a display rotated by rotation degrees.
func DrawTransform(rotation int, capture Region) Transform {
	var t Transform
	switch rotation {
	case 90:
		t.TranslateX = float64(capture.Height)
	case 180:
		t.TranslateX = float64(capture.Width)
		t.TranslateY = float64(capture.Height)
	case 270:
		t.TranslateY = float64(capture.Width)
	case 0:
		return t
	}
	t.Radians = float64(rotation) * math.Pi / 180
	return t
}

// compositor draws the captured texture and cursor for one render call.
type compositor struct {
	rotation int
	capture  Region
	display  Region
}

func (c compositor) drawTexture(dc DrawContext, tex Texture) {
	dc.SetEffect(EffectOpaque)
	dc.PushMatrix()
	defer dc.PopMatrix()

	if t := DrawTransform(c.rotation, c.capture); !t.Identity() {
		dc.Translate(t.TranslateX, t.TranslateY)
		dc.Rotate(t.Radians)
	}

	// The texture starts at the display origin; sample relative to it.
	// Absolute capture coordinates would be wrong on any monitor not at 0,0.
	dc.DrawSpriteSubregion(tex,
		c.capture.X-c.display.X,
		c.capture.Y-c.display.Y,
		c.capture.Width,
		c.capture.Height,
	)
}

func (c compositor) drawCursor(dc DrawContext, cur Cursor) {
	w, h := EffectiveSize(c.rotation, c.capture)
	dc.SetEffect(EffectDefault)
	cur.Draw(dc, -c.capture.X, -c.capture.Y, 1, 1, w, h)
}
