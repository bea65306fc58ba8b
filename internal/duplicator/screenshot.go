package duplicator

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
	"github.com/breeze-rmm/monitorcapture/internal/graphics"
)

// displays is the subset of the screenshot package the backend relies on.
type displays interface {
	NumActiveDisplays() int
	GetDisplayBounds(index int) image.Rectangle
	CaptureRect(r image.Rectangle) (*image.RGBA, error)
}

type systemDisplays struct{}

func (systemDisplays) NumActiveDisplays() int                 { return screenshot.NumActiveDisplays() }
func (systemDisplays) GetDisplayBounds(i int) image.Rectangle { return screenshot.GetDisplayBounds(i) }
func (systemDisplays) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

// ScreenshotFactory duplicates monitors by grabbing the display each frame.
// Rotation is always reported as 0; the OS already presents upright pixels.
type ScreenshotFactory struct {
	displays displays
}

// NewScreenshotFactory returns a factory backed by the system displays.
func NewScreenshotFactory() *ScreenshotFactory {
	return &ScreenshotFactory{displays: systemDisplays{}}
}

func (f *ScreenshotFactory) bounds(index int) (image.Rectangle, error) {
	if index < 0 || index >= f.displays.NumActiveDisplays() {
		return image.Rectangle{}, fmt.Errorf("%w: %d", capture.ErrMonitorNotFound, index)
	}
	return f.displays.GetDisplayBounds(index), nil
}

func (f *ScreenshotFactory) MonitorInfo(index int) (capture.MonitorInfo, error) {
	b, err := f.bounds(index)
	if err != nil {
		return capture.MonitorInfo{}, err
	}
	return capture.MonitorInfo{
		X:      int32(b.Min.X),
		Y:      int32(b.Min.Y),
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
	}, nil
}

func (f *ScreenshotFactory) Create(monitor int) (capture.Duplicator, error) {
	b, err := f.bounds(monitor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrResourceUnavailable, err)
	}
	if b.Empty() {
		return nil, fmt.Errorf("%w: display %d has no extent", capture.ErrResourceUnavailable, monitor)
	}
	return &screenshotDuplicator{factory: f, index: monitor, bounds: b}, nil
}

type screenshotDuplicator struct {
	factory *ScreenshotFactory
	index   int
	bounds  image.Rectangle
	tex     *graphics.ImageTexture
}

// UpdateFrame grabs the display. A change of display geometry invalidates
// the duplication, mirroring a lost DXGI output.
func (d *screenshotDuplicator) UpdateFrame() error {
	b, err := d.factory.bounds(d.index)
	if err != nil {
		return fmt.Errorf("%w: %w", capture.ErrFrameStale, err)
	}
	if b != d.bounds {
		return fmt.Errorf("%w: display %d moved from %v to %v", capture.ErrFrameStale, d.index, d.bounds, b)
	}

	img, err := d.factory.displays.CaptureRect(b)
	if err != nil {
		return fmt.Errorf("%w: %w", capture.ErrFrameStale, err)
	}
	// Sampling is relative to the texture origin.
	img.Rect = img.Rect.Sub(img.Rect.Min)
	d.tex = graphics.WrapImage(img)
	return nil
}

func (d *screenshotDuplicator) Texture() capture.Texture {
	if d.tex == nil {
		return nil
	}
	return d.tex
}

func (d *screenshotDuplicator) Close() error {
	d.tex = nil
	return nil
}
