//go:build linux

package window

import (
	"fmt"
	"image"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

// X11 answers window queries against an X server using EWMH hints and
// RandR monitor layout.
type X11 struct {
	conn *xgb.Conn
	root xproto.Window

	mu       sync.Mutex
	atoms    map[string]xproto.Atom
	hasRandr bool
	screen   image.Rectangle
}

// Open connects to $DISPLAY.
func Open() (System, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	x := &X11{
		conn:   conn,
		root:   screen.Root,
		atoms:  make(map[string]xproto.Atom),
		screen: image.Rect(0, 0, int(screen.WidthInPixels), int(screen.HeightInPixels)),
	}
	if err := randr.Init(conn); err != nil {
		log.Debug("randr unavailable, treating the screen as one monitor", "error", err)
	} else {
		x.hasRandr = true
	}
	return x, nil
}

func (x *X11) Close() error {
	x.conn.Close()
	return nil
}

func (x *X11) atom(name string) xproto.Atom {
	x.mu.Lock()
	defer x.mu.Unlock()
	if a, ok := x.atoms[name]; ok {
		return a
	}
	reply, err := xproto.InternAtom(x.conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone
	}
	x.atoms[name] = reply.Atom
	return reply.Atom
}

func (x *X11) property(w xproto.Window, name string) *xproto.GetPropertyReply {
	a := x.atom(name)
	if a == xproto.AtomNone {
		return nil
	}
	reply, err := xproto.GetProperty(x.conn, false, w, a, xproto.GetPropertyTypeAny, 0, 64).Reply()
	if err != nil || reply.Format != 32 {
		return nil
	}
	return reply
}

func values32(reply *xproto.GetPropertyReply) []uint32 {
	if reply == nil {
		return nil
	}
	out := make([]uint32, 0, reply.ValueLen)
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		out = append(out, xgb.Get32(reply.Value[i:]))
	}
	return out
}

func (x *X11) ForegroundWindow() capture.WindowHandle {
	v := values32(x.property(x.root, "_NET_ACTIVE_WINDOW"))
	if len(v) == 0 {
		return 0
	}
	return capture.WindowHandle(v[0])
}

// Parent returns 0 for managed client windows and for children of the root.
func (x *X11) Parent(w capture.WindowHandle) capture.WindowHandle {
	if w == 0 {
		return 0
	}
	if reply, err := xproto.GetProperty(x.conn, false, xproto.Window(w), x.atom("WM_STATE"),
		xproto.GetPropertyTypeAny, 0, 1).Reply(); err == nil && reply.Format != 0 {
		return 0
	}
	tree, err := xproto.QueryTree(x.conn, xproto.Window(w)).Reply()
	if err != nil || tree.Parent == x.root {
		return 0
	}
	return capture.WindowHandle(tree.Parent)
}

// monitors returns the active CRTC rectangles, or the whole screen.
func (x *X11) monitors() []image.Rectangle {
	if !x.hasRandr {
		return []image.Rectangle{x.screen}
	}
	res, err := randr.GetScreenResourcesCurrent(x.conn, x.root).Reply()
	if err != nil {
		return []image.Rectangle{x.screen}
	}
	var out []image.Rectangle
	for _, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(x.conn, crtc, res.ConfigTimestamp).Reply()
		if err != nil || info.Mode == 0 || info.Width == 0 || info.Height == 0 {
			continue
		}
		out = append(out, image.Rect(int(info.X), int(info.Y), int(info.X)+int(info.Width), int(info.Y)+int(info.Height)))
	}
	if len(out) == 0 {
		return []image.Rectangle{x.screen}
	}
	return out
}

// MonitorFromPoint returns a 1-based monitor handle.
func (x *X11) MonitorFromPoint(px, py int32) capture.MonitorHandle {
	return capture.MonitorHandle(nearestMonitor(x.monitors(), image.Pt(int(px), int(py))) + 1)
}

func (x *X11) MonitorFromWindow(w capture.WindowHandle) capture.MonitorHandle {
	r, err := x.ClientRectInScreen(w)
	if err != nil {
		return 0
	}
	return capture.MonitorHandle(nearestMonitor(x.monitors(), center(r)) + 1)
}

func (x *X11) ClientRectInScreen(w capture.WindowHandle) (capture.Region, error) {
	geom, err := xproto.GetGeometry(x.conn, xproto.Drawable(w)).Reply()
	if err != nil {
		return capture.Region{}, fmt.Errorf("get geometry: %w", err)
	}
	pos, err := xproto.TranslateCoordinates(x.conn, xproto.Window(w), x.root, 0, 0).Reply()
	if err != nil {
		return capture.Region{}, fmt.Errorf("translate coordinates: %w", err)
	}
	return capture.Region{
		X:      int32(pos.DstX),
		Y:      int32(pos.DstY),
		Width:  uint32(geom.Width),
		Height: uint32(geom.Height),
	}, nil
}

// HasCaptionStyle approximates a captioned window: a normal or dialog window
// that is not fullscreen.
func (x *X11) HasCaptionStyle(w capture.WindowHandle) bool {
	win := xproto.Window(w)
	for _, s := range values32(x.property(win, "_NET_WM_STATE")) {
		if xproto.Atom(s) == x.atom("_NET_WM_STATE_FULLSCREEN") {
			return false
		}
	}
	types := values32(x.property(win, "_NET_WM_WINDOW_TYPE"))
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		switch xproto.Atom(t) {
		case x.atom("_NET_WM_WINDOW_TYPE_NORMAL"), x.atom("_NET_WM_WINDOW_TYPE_DIALOG"):
			return true
		}
	}
	return false
}
