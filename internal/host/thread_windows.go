//go:build windows

package host

import (
	"errors"
	"fmt"

	ole "github.com/go-ole/go-ole"
)

const sFalse = 0x00000001

// initRenderThread joins the COM multithreaded apartment for the DXGI calls
// made from the render thread.
func initRenderThread() (func(), error) {
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		// S_FALSE: already initialized on this thread, still balanced by
		// CoUninitialize.
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return nil, fmt.Errorf("CoInitializeEx: %w", err)
		}
	}
	return ole.CoUninitialize, nil
}
