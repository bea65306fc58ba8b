package capture

import (
	"errors"
	"fmt"
	"image"
)

type stubTexture struct{ w, h uint32 }

func (t stubTexture) Width() uint32  { return t.w }
func (t stubTexture) Height() uint32 { return t.h }

type stubGraphics struct {
	depth   int
	entered int
}

func (g *stubGraphics) Enter() { g.depth++; g.entered++ }
func (g *stubGraphics) Leave() { g.depth-- }

type stubDuplicator struct {
	tex       Texture
	updateErr error
	updates   int
	closed    bool
}

func (d *stubDuplicator) UpdateFrame() error { d.updates++; return d.updateErr }
func (d *stubDuplicator) Texture() Texture   { return d.tex }
func (d *stubDuplicator) Close() error       { d.closed = true; return nil }

// stubFactory hands out duplicators of a fixed size while available is true.
type stubFactory struct {
	graphics  *stubGraphics
	monitors  []MonitorInfo
	available bool
	createErr error

	creates         int
	createdMonitors []int
	outsideContext  int
	last            *stubDuplicator
}

func newStubFactory(g *stubGraphics, monitors ...MonitorInfo) *stubFactory {
	if len(monitors) == 0 {
		monitors = []MonitorInfo{{Width: 1920, Height: 1080}}
	}
	return &stubFactory{graphics: g, monitors: monitors, available: true}
}

func (f *stubFactory) Create(monitor int) (Duplicator, error) {
	f.creates++
	f.createdMonitors = append(f.createdMonitors, monitor)
	if f.graphics != nil && f.graphics.depth == 0 {
		f.outsideContext++
	}
	if !f.available {
		if f.createErr != nil {
			return nil, f.createErr
		}
		return nil, errors.New("access denied")
	}
	if monitor < 0 || monitor >= len(f.monitors) {
		return nil, fmt.Errorf("%w: %d", ErrMonitorNotFound, monitor)
	}
	info := f.monitors[monitor]
	w, h := info.Width, info.Height
	if info.Rotation%180 != 0 {
		// Frames arrive in the unrotated orientation.
		w, h = h, w
	}
	f.last = &stubDuplicator{tex: stubTexture{w: w, h: h}}
	return f.last, nil
}

func (f *stubFactory) MonitorInfo(index int) (MonitorInfo, error) {
	if index < 0 || index >= len(f.monitors) {
		return MonitorInfo{}, ErrMonitorNotFound
	}
	return f.monitors[index], nil
}

type stubVisibility struct{ hidden bool }

func (v *stubVisibility) Showing() bool { return !v.hidden }

type stubCursor struct {
	captures int
	frees    int
	draws    []cursorDraw
}

type cursorDraw struct {
	offsetX, offsetY int32
	scaleX, scaleY   float64
	clipW, clipH     uint32
}

func (c *stubCursor) Capture() { c.captures++ }
func (c *stubCursor) Free()    { c.frees++ }
func (c *stubCursor) Draw(_ DrawContext, ox, oy int32, sx, sy float64, cw, ch uint32) {
	c.draws = append(c.draws, cursorDraw{ox, oy, sx, sy, cw, ch})
}

type stubObserver struct {
	attempts []error
	stale    []error
	targets  []Region
	states   []LifecycleState
}

func (o *stubObserver) AcquireAttempt(_ int, err error) { o.attempts = append(o.attempts, err) }
func (o *stubObserver) FrameStale(_ int, err error)     { o.stale = append(o.stale, err) }
func (o *stubObserver) TargetChanged(r Region)          { o.targets = append(o.targets, r) }
func (o *stubObserver) StateChanged(s LifecycleState)   { o.states = append(o.states, s) }

// stubWindows models a single foreground window with an optional parent.
type stubWindows struct {
	foreground WindowHandle
	parents    map[WindowHandle]WindowHandle
	monitorOf  map[WindowHandle]MonitorHandle
	caption    map[WindowHandle]bool
	client     map[WindowHandle]Region
	display    MonitorHandle
}

func (w *stubWindows) ForegroundWindow() WindowHandle              { return w.foreground }
func (w *stubWindows) Parent(h WindowHandle) WindowHandle          { return w.parents[h] }
func (w *stubWindows) MonitorFromPoint(int32, int32) MonitorHandle { return w.display }
func (w *stubWindows) MonitorFromWindow(h WindowHandle) MonitorHandle {
	return w.monitorOf[h]
}
func (w *stubWindows) HasCaptionStyle(h WindowHandle) bool { return w.caption[h] }
func (w *stubWindows) ClientRectInScreen(h WindowHandle) (Region, error) {
	r, ok := w.client[h]
	if !ok {
		return Region{}, errors.New("no client rect")
	}
	return r, nil
}

// newStubWindow returns a window system whose foreground window 7 sits on
// the captured monitor with a caption and the given client area.
func newStubWindow(client Region) *stubWindows {
	return &stubWindows{
		foreground: 7,
		parents:    map[WindowHandle]WindowHandle{},
		monitorOf:  map[WindowHandle]MonitorHandle{7: 1},
		caption:    map[WindowHandle]bool{7: true},
		client:     map[WindowHandle]Region{7: client},
		display:    1,
	}
}

type drawCall struct {
	op     string
	effect Effect
	x, y   float64
	rad    float64
	sx, sy int32
	sw, sh uint32
}

// recorder is a DrawContext that records every call.
type recorder struct {
	calls []drawCall
}

func (r *recorder) SetEffect(e Effect) { r.calls = append(r.calls, drawCall{op: "effect", effect: e}) }
func (r *recorder) PushMatrix()        { r.calls = append(r.calls, drawCall{op: "push"}) }
func (r *recorder) PopMatrix()         { r.calls = append(r.calls, drawCall{op: "pop"}) }
func (r *recorder) Translate(x, y float64) {
	r.calls = append(r.calls, drawCall{op: "translate", x: x, y: y})
}
func (r *recorder) Rotate(radians float64) {
	r.calls = append(r.calls, drawCall{op: "rotate", rad: radians})
}
func (r *recorder) DrawSpriteSubregion(_ Texture, x, y int32, w, h uint32) {
	r.calls = append(r.calls, drawCall{op: "sprite", sx: x, sy: y, sw: w, sh: h})
}
func (r *recorder) DrawImage(image.Image, float64, float64, float64, float64, image.Rectangle) {
	r.calls = append(r.calls, drawCall{op: "image"})
}

func (r *recorder) ops() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.op
	}
	return out
}

func (r *recorder) find(op string) (drawCall, bool) {
	for _, c := range r.calls {
		if c.op == op {
			return c, true
		}
	}
	return drawCall{}, false
}

type harness struct {
	src      *MonitorSource
	graphics *stubGraphics
	factory  *stubFactory
	visible  *stubVisibility
	cursor   *stubCursor
	observer *stubObserver
}

func newHarness(t interface{ Fatalf(string, ...any) }, settings Settings, windows WindowSystem, monitors ...MonitorInfo) *harness {
	g := &stubGraphics{}
	h := &harness{
		graphics: g,
		factory:  newStubFactory(g, monitors...),
		visible:  &stubVisibility{},
		cursor:   &stubCursor{},
		observer: &stubObserver{},
	}
	src, err := New(settings, Deps{
		Graphics:    g,
		Duplicators: h.factory,
		Windows:     windows,
		Cursor:      h.cursor,
		Visibility:  h.visible,
		Observer:    h.observer,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.src = src
	return h
}
