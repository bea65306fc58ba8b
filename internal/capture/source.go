package capture

import (
	"errors"
	"log/slog"

	"github.com/breeze-rmm/monitorcapture/internal/logging"
)

var log = logging.L("capture")

// SourceID is the stable identifier of the monitor capture source type.
const SourceID = "monitor_capture"

// DisplayName is the human-readable name of the source type.
const DisplayName = "Monitor Capture"

// Source is the per-source operation set a host drives. The host serializes
// all calls for one source; Render is called with the graphics context held.
type Source interface {
	ID() string
	Name() string
	Update(settings Settings)
	Tick(seconds float64)
	Render(dc DrawContext)
	Width() uint32
	Height() uint32
	Properties() Properties
	Destroy()
}

// MonitorSource captures one monitor, optionally following the foreground
// window, and draws it upright with an optional cursor overlay.
type MonitorSource struct {
	name     string
	log      *slog.Logger
	graphics GraphicsContext
	factory  DuplicatorFactory
	visible  Visibility
	observer Observer
	cursor   Cursor
	resolver resolver

	settings Settings
	rotation int
	showing  bool

	capture Region
	target  Region
	display Region

	// unfollowed is the reason last logged for not following the
	// foreground window, or "" while it is followed.
	unfollowed string

	life      lifecycle
	lastState LifecycleState
}

var _ Source = (*MonitorSource)(nil)

// New creates a source with the given settings. Graphics and Duplicators are
// required; the remaining collaborators fall back to inert implementations.
func New(settings Settings, deps Deps) (*MonitorSource, error) {
	if deps.Graphics == nil {
		return nil, errors.New("capture: graphics context is required")
	}
	if deps.Duplicators == nil {
		return nil, errors.New("capture: duplicator factory is required")
	}

	name := deps.Name
	if name == "" {
		name = DisplayName
	}

	s := &MonitorSource{
		name:     name,
		log:      log.With("source", name),
		graphics: deps.Graphics,
		factory:  deps.Duplicators,
		visible:  deps.Visibility,
		observer: deps.Observer,
		cursor:   deps.Cursor,
		resolver: resolver{windows: deps.Windows},
		life:     lifecycle{factory: deps.Duplicators},
	}
	if s.visible == nil {
		s.visible = alwaysShowing{}
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.cursor == nil {
		s.cursor = nopCursor{}
	}

	s.Update(settings)
	return s, nil
}

func (s *MonitorSource) ID() string   { return SourceID }
func (s *MonitorSource) Name() string { return s.name }

// Update applies new settings. The duplication resource is released and all
// geometry is discarded so nothing from a previous monitor survives.
func (s *MonitorSource) Update(settings Settings) {
	s.settings = settings

	s.withGraphics(func() {
		s.life.release()
		s.resetGeometry()
	})
	s.life.armImmediate()
	s.noteState()

	s.log.Debug("settings applied",
		"monitor", settings.Monitor,
		"cursor", settings.CaptureCursor,
		"followWindow", settings.CaptureForegroundWindow,
	)
}

// Tick advances tracking and the resource lifecycle by seconds.
func (s *MonitorSource) Tick(seconds float64) {
	// Until the first frame supplies the display bounds there is nothing to
	// qualify a window against.
	if s.settings.CaptureForegroundWindow && !s.display.Empty() {
		s.trackWindow(seconds)
	} else {
		s.target = s.display
	}

	// Fully release the duplication while hidden; holding it can lag
	// fullscreen games.
	if !s.visible.Showing() {
		if s.showing {
			s.withGraphics(s.teardown)
			s.showing = false
			s.log.Debug("source hidden, duplication released")
		}
		s.noteState()
		return
	}
	if !s.showing {
		s.life.armImmediate()
	}

	s.withGraphics(func() { s.refresh(seconds) })
	s.showing = true
	s.noteState()
}

func (s *MonitorSource) trackWindow(seconds float64) {
	target, outcome, reason := s.resolver.resolve(s.target, s.display)
	s.target = target
	switch outcome {
	case TargetChanged:
		s.log.Info("capture target changed", "target", target.String())
		s.observer.TargetChanged(target)
		s.unfollowed = ""
	case TargetDisplay:
		if reason != s.unfollowed {
			s.log.Debug("foreground window not followed", "reason", reason)
			s.unfollowed = reason
		}
	default:
		s.unfollowed = ""
	}

	if s.capture != s.target {
		s.capture = Smooth(s.capture, s.target, seconds)
	}
}

// refresh runs inside the graphics context.
func (s *MonitorSource) refresh(seconds float64) {
	attempted, err := s.life.ensure(s.settings.Monitor, seconds)
	if attempted {
		s.observer.AcquireAttempt(s.settings.Monitor, err)
		if err != nil {
			s.log.Debug("duplicator unavailable, will retry",
				"monitor", s.settings.Monitor, "retryIn", RetryInterval, "error", err)
		} else {
			s.log.Info("duplicator created", "monitor", s.settings.Monitor)
		}
	}
	if !s.life.attached() {
		return
	}

	if s.settings.CaptureCursor {
		s.cursor.Capture()
	}

	if err := s.life.pull(); err != nil {
		s.log.Warn("duplicator lost, tearing down", "monitor", s.settings.Monitor, "error", err)
		s.observer.FrameStale(s.settings.Monitor, err)
		s.teardown()
		return
	}

	if s.display.Empty() {
		s.adoptMonitorGeometry()
	}
}

// adoptMonitorGeometry reads the authoritative geometry of the monitor after
// the first successful frame.
func (s *MonitorSource) adoptMonitorGeometry() {
	info, err := s.factory.MonitorInfo(s.settings.Monitor)
	if err != nil {
		s.log.Debug("monitor info unavailable", "monitor", s.settings.Monitor, "error", err)
		info = MonitorInfo{}
	}

	r := Region{X: info.X, Y: info.Y, Width: info.Width, Height: info.Height}
	if tex := s.life.texture(); tex != nil {
		r.Width, r.Height = tex.Width(), tex.Height()
	}

	s.display, s.capture, s.target = r, r, r
	s.rotation = info.Rotation

	if !r.Empty() {
		s.log.Info("monitor geometry acquired",
			"monitor", s.settings.Monitor, "display", r.String(), "rotation", s.rotation)
	}
}

// teardown releases the duplication and cursor state and forgets all
// geometry. Runs inside the graphics context.
func (s *MonitorSource) teardown() {
	s.life.release()
	s.cursor.Free()
	s.resetGeometry()
}

func (s *MonitorSource) resetGeometry() {
	s.capture = Region{}
	s.target = Region{}
	s.display = Region{}
	s.rotation = 0
	s.unfollowed = ""
}

// Render draws the current capture. It is a no-op until a frame exists.
func (s *MonitorSource) Render(dc DrawContext) {
	tex := s.life.texture()
	if tex == nil {
		return
	}

	c := compositor{rotation: s.rotation, capture: s.capture, display: s.display}
	c.drawTexture(dc, tex)
	if s.settings.CaptureCursor {
		c.drawCursor(dc, s.cursor)
	}
}

// Width returns the upright width of the capture.
func (s *MonitorSource) Width() uint32 {
	w, _ := EffectiveSize(s.rotation, s.capture)
	return w
}

// Height returns the upright height of the capture.
func (s *MonitorSource) Height() uint32 {
	_, h := EffectiveSize(s.rotation, s.capture)
	return h
}

// Properties enumerates the monitors currently available.
func (s *MonitorSource) Properties() Properties {
	var props Properties
	s.withGraphics(func() {
		props = BuildProperties(s.factory.MonitorInfo)
	})
	return props
}

// Destroy releases every resource held by the source.
func (s *MonitorSource) Destroy() {
	s.withGraphics(func() {
		s.life.release()
		s.cursor.Free()
	})
	s.log.Debug("source destroyed")
}

func (s *MonitorSource) Settings() Settings    { return s.settings }
func (s *MonitorSource) State() LifecycleState { return s.life.state }
func (s *MonitorSource) FailedAttempts() int   { return s.life.attempts }
func (s *MonitorSource) CaptureRegion() Region { return s.capture }
func (s *MonitorSource) TargetRegion() Region  { return s.target }
func (s *MonitorSource) DisplayRegion() Region { return s.display }
func (s *MonitorSource) Rotation() int         { return s.rotation }
func (s *MonitorSource) Attached() bool        { return s.life.attached() }

func (s *MonitorSource) withGraphics(fn func()) {
	s.graphics.Enter()
	defer s.graphics.Leave()
	fn()
}

func (s *MonitorSource) noteState() {
	if st := s.life.state; st != s.lastState {
		s.lastState = st
		s.observer.StateChanged(st)
	}
}

type alwaysShowing struct{}

func (alwaysShowing) Showing() bool { return true }

type nopCursor struct{}

func (nopCursor) Capture()                                                         {}
func (nopCursor) Draw(DrawContext, int32, int32, float64, float64, uint32, uint32) {}
func (nopCursor) Free()                                                            {}
