package health

import (
	"fmt"
	"sync"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

// ComponentCapture is the check name used by CaptureTracker.
const ComponentCapture = "capture"

// DefaultUnhealthyAfter is the number of consecutive failed acquisitions
// after which the capture is reported unhealthy.
const DefaultUnhealthyAfter = 5

// CaptureTracker turns capture lifecycle events into a health check. It
// implements capture.Observer.
type CaptureTracker struct {
	monitor        *Monitor
	unhealthyAfter int

	mu       sync.Mutex
	state    capture.LifecycleState
	failures int
	hidden   bool
	lastErr  error
}

var _ capture.Observer = (*CaptureTracker)(nil)

// NewCaptureTracker reports into m. Non-positive unhealthyAfter uses
// DefaultUnhealthyAfter.
func NewCaptureTracker(m *Monitor, unhealthyAfter int) *CaptureTracker {
	if unhealthyAfter <= 0 {
		unhealthyAfter = DefaultUnhealthyAfter
	}
	t := &CaptureTracker{monitor: m, unhealthyAfter: unhealthyAfter}
	m.Update(ComponentCapture, Unknown, "waiting for first tick")
	return t
}

func (t *CaptureTracker) AcquireAttempt(_ int, err error) {
	t.mu.Lock()
	if err != nil {
		t.failures++
		t.lastErr = err
	} else {
		t.failures = 0
		t.lastErr = nil
	}
	t.mu.Unlock()
	t.publish()
}

func (t *CaptureTracker) FrameStale(_ int, err error) {
	t.mu.Lock()
	t.lastErr = err
	t.mu.Unlock()
	t.publish()
}

func (t *CaptureTracker) TargetChanged(capture.Region) {}

func (t *CaptureTracker) StateChanged(s capture.LifecycleState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
	t.publish()
}

// SetHidden records whether the host is hiding the source. A hidden source
// holds no resources and is reported healthy.
func (t *CaptureTracker) SetHidden(hidden bool) {
	t.mu.Lock()
	t.hidden = hidden
	t.mu.Unlock()
	t.publish()
}

func (t *CaptureTracker) publish() {
	t.mu.Lock()
	status, msg := t.evaluate()
	t.mu.Unlock()
	t.monitor.Update(ComponentCapture, status, msg)
}

// evaluate runs with t.mu held.
func (t *CaptureTracker) evaluate() (Status, string) {
	switch {
	case t.hidden:
		return Healthy, "hidden"
	case t.state == capture.Attached:
		return Healthy, "attached"
	case t.failures >= t.unhealthyAfter:
		return Unhealthy, fmt.Sprintf("%d consecutive acquisition failures: %v", t.failures, t.lastErr)
	case t.lastErr != nil:
		return Degraded, fmt.Sprintf("%s: %v", t.state, t.lastErr)
	default:
		return Degraded, t.state.String()
	}
}
