package capture

// TargetOutcome is the result of one resolver pass.
type TargetOutcome int

const (
	// TargetDisplay: the foreground window was disqualified and the target
	// fell back to the display bounds.
	TargetDisplay TargetOutcome = iota
	// TargetUnchanged: the window qualified and its client area did not move.
	TargetUnchanged
	// TargetChanged: the window qualified and the target was overwritten.
	TargetChanged
)

func (o TargetOutcome) String() string {
	switch o {
	case TargetDisplay:
		return "display"
	case TargetUnchanged:
		return "unchanged"
	case TargetChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Reasons a candidate window is not followed.
const (
	reasonNoWindow     = "no foreground window"
	reasonOtherMonitor = "different monitor"
	reasonNoCaption    = "no caption"
	reasonNoClientRect = "client rect unavailable"
)

// resolver computes the desired capture rectangle from the foreground window.
type resolver struct {
	windows WindowSystem
}

// topLevel walks the parent chain of w up to its top-level ancestor.
func (r resolver) topLevel(w WindowHandle) WindowHandle {
	// Cycles should not exist; the bound only guards against a broken
	// window system.
	for i := 0; w != 0 && i < 64; i++ {
		parent := r.windows.Parent(w)
		if parent == 0 {
			break
		}
		w = parent
	}
	return w
}

// qualify reports why w cannot be followed for a capture whose display
// origin is (x, y), or "" if it can.
func (r resolver) qualify(w WindowHandle, display Region) string {
	if w == 0 {
		return reasonNoWindow
	}
	if r.windows.MonitorFromPoint(display.X, display.Y) != r.windows.MonitorFromWindow(w) {
		return reasonOtherMonitor
	}
	if !r.windows.HasCaptionStyle(w) {
		return reasonNoCaption
	}
	return ""
}

// resolve returns the new target given the previous one. reason is set when
// the outcome is TargetDisplay.
func (r resolver) resolve(prev, display Region) (target Region, outcome TargetOutcome, reason string) {
	if r.windows == nil {
		return display, TargetDisplay, reasonNoWindow
	}

	w := r.topLevel(r.windows.ForegroundWindow())
	if reason := r.qualify(w, display); reason != "" {
		return display, TargetDisplay, reason
	}

	rect, err := r.windows.ClientRectInScreen(w)
	if err != nil {
		return display, TargetDisplay, reasonNoClientRect
	}
	if rect == prev {
		return prev, TargetUnchanged, ""
	}
	return rect, TargetChanged, ""
}
