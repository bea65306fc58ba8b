//go:build windows

package duplicator

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

// dxgiOutputDesc matches DXGI_OUTPUT_DESC.
type dxgiOutputDesc struct {
	DeviceName        [32]uint16
	Left              int32
	Top               int32
	Right             int32
	Bottom            int32
	AttachedToDesktop int32
	Rotation          uint32
	Monitor           uintptr
}

// rotationDegrees maps DXGI_MODE_ROTATION to clockwise degrees.
func rotationDegrees(r uint32) int {
	switch r {
	case dxgiModeRotationRotate90:
		return 90
	case dxgiModeRotationRotate180:
		return 180
	case dxgiModeRotationRotate270:
		return 270
	default:
		return 0
	}
}

// monitorInfo converts an output description. Desktop coordinates are
// reported in the rotated orientation.
func (d dxgiOutputDesc) monitorInfo() capture.MonitorInfo {
	return capture.MonitorInfo{
		X:        d.Left,
		Y:        d.Top,
		Width:    uint32(d.Right - d.Left),
		Height:   uint32(d.Bottom - d.Top),
		Rotation: rotationDegrees(d.Rotation),
	}
}

// withOutput creates a temporary device and calls fn with output index of
// its default adapter. DXGI_ERROR_NOT_FOUND maps to capture.ErrMonitorNotFound.
func withOutput(index int, fn func(output uintptr) error) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", capture.ErrMonitorNotFound, index)
	}

	device, context, err := createDevice(0)
	if err != nil {
		return err
	}
	defer comRelease(context)
	defer comRelease(device)

	adapter, err := deviceAdapter(device)
	if err != nil {
		return err
	}
	defer comRelease(adapter)

	output, err := enumOutput(adapter, index)
	if err != nil {
		return err
	}
	defer comRelease(output)
	return fn(output)
}

func enumOutput(adapter uintptr, index int) (uintptr, error) {
	var output uintptr
	_, err := comCall(adapter, dxgiAdapterEnumOutputs, uintptr(index), uintptr(unsafe.Pointer(&output)))
	if err != nil {
		var he hresultError
		if errors.As(err, &he) && he.code == dxgiErrNotFound {
			return 0, fmt.Errorf("%w: %d", capture.ErrMonitorNotFound, index)
		}
		return 0, fmt.Errorf("IDXGIAdapter::EnumOutputs: %w", err)
	}
	return output, nil
}

func outputDesc(output uintptr) (dxgiOutputDesc, error) {
	var desc dxgiOutputDesc
	hr, _, _ := syscall.SyscallN(comVtblFn(output, dxgiOutputGetDesc), output, uintptr(unsafe.Pointer(&desc)))
	if int32(hr) < 0 {
		return desc, hresultError{op: "IDXGIOutput::GetDesc", code: uint32(hr)}
	}
	return desc, nil
}

// MonitorInfo returns the geometry of output index of the default adapter.
func (f *DXGIFactory) MonitorInfo(index int) (capture.MonitorInfo, error) {
	var info capture.MonitorInfo
	err := withOutput(index, func(output uintptr) error {
		desc, err := outputDesc(output)
		if err != nil {
			return err
		}
		info = desc.monitorInfo()
		return nil
	})
	return info, err
}
