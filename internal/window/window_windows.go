//go:build windows

package window

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

var (
	modUser32               = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow = modUser32.NewProc("GetForegroundWindow")
	procGetParent           = modUser32.NewProc("GetParent")
	procMonitorFromRect     = modUser32.NewProc("MonitorFromRect")
	procMonitorFromWindow   = modUser32.NewProc("MonitorFromWindow")
	procGetClientRect       = modUser32.NewProc("GetClientRect")
	procClientToScreen      = modUser32.NewProc("ClientToScreen")
	procGetWindowLongW      = modUser32.NewProc("GetWindowLongW")
)

const (
	gwlStyle              = -16
	wsCaption             = 0x00C00000
	monitorDefaultNearest = 2
)

type rect struct {
	Left, Top, Right, Bottom int32
}

type point struct {
	X, Y int32
}

// Win32 answers window queries through user32.
type Win32 struct{}

// Open returns the user32 window system.
func Open() (System, error) {
	if err := procGetForegroundWindow.Find(); err != nil {
		return nil, err
	}
	return Win32{}, nil
}

func (Win32) Close() error { return nil }

func (Win32) ForegroundWindow() capture.WindowHandle {
	r, _, _ := procGetForegroundWindow.Call()
	return capture.WindowHandle(r)
}

func (Win32) Parent(w capture.WindowHandle) capture.WindowHandle {
	r, _, _ := procGetParent.Call(uintptr(w))
	return capture.WindowHandle(r)
}

func (Win32) MonitorFromPoint(x, y int32) capture.MonitorHandle {
	rc := rect{Left: x, Top: y, Right: x + 1, Bottom: y + 1}
	r, _, _ := procMonitorFromRect.Call(uintptr(unsafe.Pointer(&rc)), monitorDefaultNearest)
	return capture.MonitorHandle(r)
}

func (Win32) MonitorFromWindow(w capture.WindowHandle) capture.MonitorHandle {
	r, _, _ := procMonitorFromWindow.Call(uintptr(w), monitorDefaultNearest)
	return capture.MonitorHandle(r)
}

// ClientRectInScreen returns the client area of w in desktop coordinates.
func (Win32) ClientRectInScreen(w capture.WindowHandle) (capture.Region, error) {
	var rc rect
	if ok, _, err := procGetClientRect.Call(uintptr(w), uintptr(unsafe.Pointer(&rc))); ok == 0 {
		return capture.Region{}, err
	}
	origin := point{X: rc.Left, Y: rc.Top}
	if ok, _, err := procClientToScreen.Call(uintptr(w), uintptr(unsafe.Pointer(&origin))); ok == 0 {
		return capture.Region{}, err
	}
	return capture.Region{
		X:      origin.X,
		Y:      origin.Y,
		Width:  uint32(max(rc.Right-rc.Left, 0)),
		Height: uint32(max(rc.Bottom-rc.Top, 0)),
	}, nil
}

// HasCaptionStyle reports whether w has a title bar or border frame.
func (Win32) HasCaptionStyle(w capture.WindowHandle) bool {
	index := int32(gwlStyle)
	style, _, _ := procGetWindowLongW.Call(uintptr(w), uintptr(index))
	return uint32(style)&wsCaption != 0
}
