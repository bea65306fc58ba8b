// Package cursor captures the mouse pointer position and draws it over a
// capture.
package cursor

import (
	"image"
	"image/color"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
	"github.com/breeze-rmm/monitorcapture/internal/logging"
)

var log = logging.L("cursor")

// Sample is one pointer observation in desktop coordinates.
type Sample struct {
	X, Y       int32
	HotX, HotY int32
	Visible    bool
}

// Sampler reads the pointer from the OS.
type Sampler interface {
	Sample() (Sample, bool)
}

// Overlay implements capture.Cursor with a software arrow sprite.
type Overlay struct {
	sampler Sampler
	last    Sample
	valid   bool
	sprite  *image.RGBA
}

var _ capture.Cursor = (*Overlay)(nil)

// New returns an overlay reading the platform pointer.
func New() *Overlay {
	return NewWithSampler(newPlatformSampler())
}

// NewWithSampler returns an overlay reading pointer samples from s.
func NewWithSampler(s Sampler) *Overlay {
	return &Overlay{sampler: s}
}

// Capture samples the pointer for the current frame.
func (o *Overlay) Capture() {
	s, ok := o.sampler.Sample()
	o.last = s
	o.valid = ok && s.Visible
}

// Draw renders the sampled pointer shifted by the offset and scaled, clipped
// to clipW x clipH.
func (o *Overlay) Draw(dc capture.DrawContext, offsetX, offsetY int32, scaleX, scaleY float64, clipW, clipH uint32) {
	if !o.valid || clipW == 0 || clipH == 0 {
		return
	}
	if o.sprite == nil {
		o.sprite = arrowSprite()
	}
	x := float64(o.last.X-o.last.HotX+offsetX) * scaleX
	y := float64(o.last.Y-o.last.HotY+offsetY) * scaleY
	dc.DrawImage(o.sprite, x, y, scaleX, scaleY, image.Rect(0, 0, int(clipW), int(clipH)))
}

// Free drops the cached sprite and sample.
func (o *Overlay) Free() {
	o.sprite = nil
	o.valid = false
}

// Position returns the last sampled pointer and whether it is drawable.
func (o *Overlay) Position() (Sample, bool) {
	return o.last, o.valid
}

// arrow is a 12x20 arrow: 0 transparent, 1 black border, 2 white fill.
var arrow = [20][12]byte{
	{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{1, 2, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{1, 2, 2, 1, 0, 0, 0, 0, 0, 0, 0, 0},
	{1, 2, 2, 2, 1, 0, 0, 0, 0, 0, 0, 0},
	{1, 2, 2, 2, 2, 1, 0, 0, 0, 0, 0, 0},
	{1, 2, 2, 2, 2, 2, 1, 0, 0, 0, 0, 0},
	{1, 2, 2, 2, 2, 2, 2, 1, 0, 0, 0, 0},
	{1, 2, 2, 2, 2, 2, 2, 2, 1, 0, 0, 0},
	{1, 2, 2, 2, 2, 2, 2, 2, 2, 1, 0, 0},
	{1, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 0},
	{1, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1},
	{1, 2, 2, 2, 1, 2, 2, 1, 0, 0, 0, 0},
	{1, 2, 2, 1, 0, 1, 2, 2, 1, 0, 0, 0},
	{1, 2, 1, 0, 0, 1, 2, 2, 1, 0, 0, 0},
	{1, 1, 0, 0, 0, 0, 1, 2, 2, 1, 0, 0},
	{1, 0, 0, 0, 0, 0, 1, 2, 2, 1, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 1, 2, 2, 1, 0},
	{0, 0, 0, 0, 0, 0, 0, 1, 2, 2, 1, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 0, 0},
}

func arrowSprite() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, len(arrow[0]), len(arrow)))
	for y, row := range arrow {
		for x, v := range row {
			switch v {
			case 1:
				img.SetRGBA(x, y, color.RGBA{A: 0xff})
			case 2:
				img.SetRGBA(x, y, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
			}
		}
	}
	return img
}
