//go:build windows

package cursor

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modUser32         = windows.NewLazySystemDLL("user32.dll")
	modGdi32          = windows.NewLazySystemDLL("gdi32.dll")
	procGetCursorInfo = modUser32.NewProc("GetCursorInfo")
	procGetIconInfo   = modUser32.NewProc("GetIconInfo")
	procDeleteObject  = modGdi32.NewProc("DeleteObject")
)

const cursorShowing = 0x00000001

type cursorInfo struct {
	CbSize      uint32
	Flags       uint32
	HCursor     uintptr
	PtScreenPos struct{ X, Y int32 }
}

type iconInfo struct {
	FIcon    int32
	XHotspot uint32
	YHotspot uint32
	HbmMask  uintptr
	HbmColor uintptr
}

// win32Sampler reads the pointer with GetCursorInfo and the hotspot of the
// current cursor shape with GetIconInfo.
type win32Sampler struct {
	lastCursor uintptr
	hotX, hotY int32
}

func newPlatformSampler() Sampler {
	return &win32Sampler{}
}

func (s *win32Sampler) Sample() (Sample, bool) {
	var ci cursorInfo
	ci.CbSize = uint32(unsafe.Sizeof(ci))
	if ret, _, _ := procGetCursorInfo.Call(uintptr(unsafe.Pointer(&ci))); ret == 0 {
		return Sample{}, false
	}

	if ci.HCursor != s.lastCursor {
		s.lastCursor = ci.HCursor
		s.hotX, s.hotY = 0, 0
		var ii iconInfo
		if ret, _, _ := procGetIconInfo.Call(ci.HCursor, uintptr(unsafe.Pointer(&ii))); ret != 0 {
			s.hotX, s.hotY = int32(ii.XHotspot), int32(ii.YHotspot)
			if ii.HbmMask != 0 {
				procDeleteObject.Call(ii.HbmMask)
			}
			if ii.HbmColor != 0 {
				procDeleteObject.Call(ii.HbmColor)
			}
		}
	}

	return Sample{
		X:       ci.PtScreenPos.X,
		Y:       ci.PtScreenPos.Y,
		HotX:    s.hotX,
		HotY:    s.hotY,
		Visible: ci.Flags&cursorShowing != 0,
	}, true
}
