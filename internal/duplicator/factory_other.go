//go:build !windows

package duplicator

import (
	"fmt"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

func newPlatformFactory(b Backend) (capture.DuplicatorFactory, error) {
	if b == BackendDXGI {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnsupported, b)
	}
	return NewScreenshotFactory(), nil
}
