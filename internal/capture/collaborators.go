package capture

import "image"

// Texture is a GPU (or GPU-like) image owned by a Duplicator.
type Texture interface {
	Width() uint32
	Height() uint32
}

// MonitorInfo describes the authoritative geometry of a display output.
// Rotation is one of 0, 90, 180 or 270.
type MonitorInfo struct {
	X        int32
	Y        int32
	Width    uint32
	Height   uint32
	Rotation int
}

// Duplicator is a live duplication of one monitor.
type Duplicator interface {
	// UpdateFrame pulls the latest frame into the texture. A non-nil error
	// means the duplication is no longer valid and must be closed.
	UpdateFrame() error

	// Texture returns the most recent frame, or nil if none is available.
	Texture() Texture

	Close() error
}

// DuplicatorFactory creates duplications and answers monitor geometry queries.
type DuplicatorFactory interface {
	// Create duplicates the given monitor. Failures wrap ErrResourceUnavailable.
	Create(monitor int) (Duplicator, error)

	// MonitorInfo returns ErrMonitorNotFound when index is out of range.
	MonitorInfo(index int) (MonitorInfo, error)
}

// WindowHandle identifies an OS window. Zero means no window.
type WindowHandle uintptr

// MonitorHandle identifies an OS monitor as returned by the window system.
type MonitorHandle uintptr

// WindowSystem exposes the window and monitor queries needed to follow the
// foreground window.
type WindowSystem interface {
	ForegroundWindow() WindowHandle
	// Parent returns 0 when w is a top-level window.
	Parent(w WindowHandle) WindowHandle
	MonitorFromPoint(x, y int32) MonitorHandle
	MonitorFromWindow(w WindowHandle) MonitorHandle
	ClientRectInScreen(w WindowHandle) (Region, error)
	HasCaptionStyle(w WindowHandle) bool
}

// Effect selects the shader used for subsequent draws.
type Effect int

const (
	// EffectOpaque ignores source alpha.
	EffectOpaque Effect = iota
	// EffectDefault blends with source alpha.
	EffectDefault
)

func (e Effect) String() string {
	switch e {
	case EffectOpaque:
		return "opaque"
	case EffectDefault:
		return "default"
	default:
		return "unknown"
	}
}

// DrawContext is the drawing surface handed to Render.
type DrawContext interface {
	SetEffect(e Effect)
	PushMatrix()
	PopMatrix()
	Translate(x, y float64)
	// Rotate rotates about the Z axis by radians.
	Rotate(radians float64)
	// DrawSpriteSubregion draws the (x, y, w, h) part of tex at the origin of
	// the current matrix.
	DrawSpriteSubregion(tex Texture, x, y int32, w, h uint32)
	// DrawImage draws img at (x, y) scaled by (scaleX, scaleY), clipped to clip.
	DrawImage(img image.Image, x, y, scaleX, scaleY float64, clip image.Rectangle)
}

// GraphicsContext serializes access to the graphics device. Every device
// resource is created and destroyed between Enter and Leave.
type GraphicsContext interface {
	Enter()
	Leave()
}

// Cursor captures and draws the mouse cursor.
type Cursor interface {
	Capture()
	Draw(dc DrawContext, offsetX, offsetY int32, scaleX, scaleY float64, clipW, clipH uint32)
	// Free releases cached cursor resources. The cursor stays usable.
	Free()
}

// Visibility reports whether the host is currently showing the source.
type Visibility interface {
	Showing() bool
}

// Observer receives lifecycle events. All methods are called from Tick.
type Observer interface {
	AcquireAttempt(monitor int, err error)
	FrameStale(monitor int, err error)
	TargetChanged(r Region)
	StateChanged(s LifecycleState)
}

type nopObserver struct{}

func (nopObserver) AcquireAttempt(int, error)   {}
func (nopObserver) FrameStale(int, error)       {}
func (nopObserver) TargetChanged(Region)        {}
func (nopObserver) StateChanged(LifecycleState) {}

// Deps bundles the collaborators a MonitorSource needs.
type Deps struct {
	Graphics    GraphicsContext
	Duplicators DuplicatorFactory
	Windows     WindowSystem
	Cursor      Cursor
	Visibility  Visibility
	Observer    Observer
	// Name labels log lines; defaults to the source display name.
	Name string
}
