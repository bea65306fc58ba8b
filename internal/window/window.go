// Package window answers the foreground-window and monitor queries used to
// follow the active window.
package window

import (
	"errors"
	"image"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
	"github.com/breeze-rmm/monitorcapture/internal/logging"
)

var log = logging.L("window")

// ErrUnsupported is returned by Open on platforms without a window backend.
var ErrUnsupported = errors.New("window tracking not supported on this platform")

// System is a capture.WindowSystem bound to an OS connection.
type System interface {
	capture.WindowSystem
	Close() error
}

// nearestMonitor returns the index of the monitor containing p, or else the
// one closest to it. It returns -1 for an empty list.
func nearestMonitor(monitors []image.Rectangle, p image.Point) int {
	best, bestDist := -1, 0
	for i, m := range monitors {
		if p.In(m) {
			return i
		}
		d := distance(m, p)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// distance is the squared distance from p to the nearest point of r.
func distance(r image.Rectangle, p image.Point) int {
	dx := max(r.Min.X-p.X, 0, p.X-(r.Max.X-1))
	dy := max(r.Min.Y-p.Y, 0, p.Y-(r.Max.Y-1))
	return dx*dx + dy*dy
}

// center returns the midpoint of r.
func center(r capture.Region) image.Point {
	return image.Pt(int(r.X)+int(r.Width)/2, int(r.Y)+int(r.Height)/2)
}
