//go:build windows

package duplicator

import (
	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

func newPlatformFactory(b Backend) (capture.DuplicatorFactory, error) {
	if err := procD3D11CreateDevice.Find(); err != nil {
		if b == BackendDXGI {
			return nil, err
		}
		log.Warn("d3d11.dll unavailable, using screenshot backend", "error", err)
		return NewScreenshotFactory(), nil
	}
	return NewDXGIFactory(), nil
}
