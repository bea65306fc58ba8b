package capture

import (
	"fmt"
	"image"
)

// Region is a rectangle in desktop (virtual screen) coordinates.
type Region struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

// Empty reports whether the region has no extent.
func (r Region) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

func (r Region) Equal(o Region) bool {
	return r == o
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X)+int(r.Width), int(r.Y)+int(r.Height))
}

func (r Region) String() string {
	return fmt.Sprintf("%d, %d (%d x %d)", r.X, r.Y, r.Width, r.Height)
}

// RegionFromRect builds a Region from an image.Rectangle. Inverted rectangles
// yield a zero extent.
func RegionFromRect(rect image.Rectangle) Region {
	rect = rect.Canon()
	return Region{
		X:      int32(rect.Min.X),
		Y:      int32(rect.Min.Y),
		Width:  uint32(rect.Dx()),
		Height: uint32(rect.Dy()),
	}
}
