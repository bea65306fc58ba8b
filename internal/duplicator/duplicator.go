// Package duplicator provides the desktop duplication backends used by
// capture sources: DXGI Desktop Duplication on Windows and a portable
// screenshot backend everywhere else.
package duplicator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
	"github.com/breeze-rmm/monitorcapture/internal/logging"
)

var log = logging.L("duplicator")

// Backend names a duplication implementation.
type Backend string

const (
	BackendAuto       Backend = "auto"
	BackendDXGI       Backend = "dxgi"
	BackendScreenshot Backend = "screenshot"
)

// ErrBackendUnsupported is returned when a backend is not available on this
// platform.
var ErrBackendUnsupported = errors.New("duplication backend not supported on this platform")

// Backends lists every backend name accepted by ParseBackend.
func Backends() []Backend {
	return []Backend{BackendAuto, BackendDXGI, BackendScreenshot}
}

// ParseBackend validates a backend name. The empty string means auto.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendDXGI, BackendScreenshot:
		return b, nil
	default:
		return "", fmt.Errorf("unknown capture backend %q", s)
	}
}

// New returns the duplicator factory for b. Auto picks the best backend the
// platform offers.
func New(b Backend) (capture.DuplicatorFactory, error) {
	switch b {
	case BackendScreenshot:
		return NewScreenshotFactory(), nil
	case BackendDXGI, BackendAuto, "":
		f, err := newPlatformFactory(b)
		if err != nil {
			return nil, err
		}
		log.Debug("duplication backend selected", "requested", string(b), "backend", fmt.Sprintf("%T", f))
		return f, nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q", b)
	}
}
