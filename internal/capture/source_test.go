package capture

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
)

const frame = 1.0 / 60

func TestSource_AcquiresOnFirstVisibleTick(t *testing.T) {
	h := newHarness(t, Defaults(), nil)

	h.src.Tick(frame)

	if !h.src.Attached() {
		t.Fatalf("expected source attached after first tick, state=%s", h.src.State())
	}
	if h.factory.creates != 1 {
		t.Fatalf("creates = %d, want 1", h.factory.creates)
	}
	if h.factory.outsideContext != 0 {
		t.Fatalf("duplicator created outside the graphics context %d times", h.factory.outsideContext)
	}
	if h.graphics.depth != 0 {
		t.Fatalf("graphics context left entered, depth=%d", h.graphics.depth)
	}
	want := Region{Width: 1920, Height: 1080}
	if h.src.DisplayRegion() != want || h.src.CaptureRegion() != want || h.src.TargetRegion() != want {
		t.Fatalf("geometry = display %v capture %v target %v, want all %v",
			h.src.DisplayRegion(), h.src.CaptureRegion(), h.src.TargetRegion(), want)
	}
	if h.src.Width() != 1920 || h.src.Height() != 1080 {
		t.Fatalf("size = %dx%d, want 1920x1080", h.src.Width(), h.src.Height())
	}
	if h.cursor.captures != 1 {
		t.Fatalf("cursor captures = %d, want 1", h.cursor.captures)
	}
}

func TestSource_ReportsZeroSizeBeforeFirstFrame(t *testing.T) {
	h := newHarness(t, Defaults(), nil)
	if h.src.Width() != 0 || h.src.Height() != 0 {
		t.Fatalf("size = %dx%d before any tick, want 0x0", h.src.Width(), h.src.Height())
	}
	if h.src.State() != Detached {
		t.Fatalf("state = %s, want detached", h.src.State())
	}
}

func TestSource_RenderNoopWithoutTexture(t *testing.T) {
	h := newHarness(t, Defaults(), nil)
	rec := &recorder{}

	h.src.Render(rec)

	if len(rec.calls) != 0 {
		t.Fatalf("expected no draw calls, got %v", rec.ops())
	}
	if len(h.cursor.draws) != 0 {
		t.Fatalf("expected no cursor draws, got %d", len(h.cursor.draws))
	}
}

func TestSource_RenderUnrotated(t *testing.T) {
	h := newHarness(t, Defaults(), nil)
	h.src.Tick(frame)
	rec := &recorder{}

	h.src.Render(rec)

	wantOps := []string{"effect", "push", "sprite", "pop", "effect"}
	if got := rec.ops(); !equalOps(got, wantOps) {
		t.Fatalf("ops = %v, want %v", got, wantOps)
	}
	if rec.calls[0].effect != EffectOpaque || rec.calls[4].effect != EffectDefault {
		t.Fatalf("effects = %s, %s; want opaque then default", rec.calls[0].effect, rec.calls[4].effect)
	}
	sprite, _ := rec.find("sprite")
	if sprite.sx != 0 || sprite.sy != 0 || sprite.sw != 1920 || sprite.sh != 1080 {
		t.Fatalf("sprite subregion = (%d,%d %dx%d), want (0,0 1920x1080)", sprite.sx, sprite.sy, sprite.sw, sprite.sh)
	}
	if len(h.cursor.draws) != 1 {
		t.Fatalf("cursor draws = %d, want 1", len(h.cursor.draws))
	}
	if d := h.cursor.draws[0]; d != (cursorDraw{0, 0, 1, 1, 1920, 1080}) {
		t.Fatalf("cursor draw = %+v", d)
	}
}

func TestSource_RenderSamplesRelativeToDisplayOrigin(t *testing.T) {
	h := newHarness(t, Defaults(), nil, MonitorInfo{X: -1280, Y: 200, Width: 1280, Height: 1024})
	h.src.Tick(frame)
	rec := &recorder{}

	h.src.Render(rec)

	sprite, _ := rec.find("sprite")
	if sprite.sx != 0 || sprite.sy != 0 || sprite.sw != 1280 || sprite.sh != 1024 {
		t.Fatalf("sprite subregion = (%d,%d %dx%d), want (0,0 1280x1024)", sprite.sx, sprite.sy, sprite.sw, sprite.sh)
	}
}

func TestSource_RenderRotated90(t *testing.T) {
	h := newHarness(t, Defaults(), nil, MonitorInfo{Width: 1080, Height: 1920, Rotation: 90})
	h.src.Tick(frame)

	if h.src.Rotation() != 90 {
		t.Fatalf("rotation = %d, want 90", h.src.Rotation())
	}
	if h.src.Width() != 1080 || h.src.Height() != 1920 {
		t.Fatalf("size = %dx%d, want 1080x1920", h.src.Width(), h.src.Height())
	}

	rec := &recorder{}
	h.src.Render(rec)

	tr, ok := rec.find("translate")
	if !ok || tr.x != 1080 || tr.y != 0 {
		t.Fatalf("translate = %+v (found=%v), want (1080, 0)", tr, ok)
	}
	rot, ok := rec.find("rotate")
	if !ok || math.Abs(rot.rad-math.Pi/2) > 1e-12 {
		t.Fatalf("rotate = %v, want pi/2", rot.rad)
	}
	sprite, _ := rec.find("sprite")
	if sprite.sw != 1920 || sprite.sh != 1080 {
		t.Fatalf("sprite size = %dx%d, want 1920x1080", sprite.sw, sprite.sh)
	}
	if d := h.cursor.draws[0]; d.clipW != 1080 || d.clipH != 1920 {
		t.Fatalf("cursor clip = %dx%d, want 1080x1920", d.clipW, d.clipH)
	}
}

func TestSource_CursorDisabled(t *testing.T) {
	s := Defaults()
	s.CaptureCursor = false
	h := newHarness(t, s, nil)
	h.src.Tick(frame)
	h.src.Render(&recorder{})

	if h.cursor.captures != 0 || len(h.cursor.draws) != 0 {
		t.Fatalf("cursor used while disabled: captures=%d draws=%d", h.cursor.captures, len(h.cursor.draws))
	}
}

func TestSource_BackoffAfterInitialAttempt(t *testing.T) {
	for _, d := range []float64{0.5, 0.25} {
		h := newHarness(t, Defaults(), nil)
		h.factory.available = false

		h.src.Tick(d)
		if h.factory.creates != 1 {
			t.Fatalf("d=%v: creates after first tick = %d, want 1", d, h.factory.creates)
		}

		const elapsed = 10.0
		for i := 0; i < int(elapsed/d); i++ {
			h.src.Tick(d)
		}

		want := 1 + int(math.Floor(elapsed/RetryInterval))
		if h.factory.creates != want {
			t.Fatalf("d=%v: creates = %d, want %d", d, h.factory.creates, want)
		}
		if h.src.State() != Pending {
			t.Fatalf("d=%v: state = %s, want pending", d, h.src.State())
		}
		if h.src.FailedAttempts() != want {
			t.Fatalf("d=%v: failed attempts = %d, want %d", d, h.src.FailedAttempts(), want)
		}
		for _, err := range h.observer.attempts {
			if !errors.Is(err, ErrResourceUnavailable) {
				t.Fatalf("d=%v: attempt error %v does not wrap ErrResourceUnavailable", d, err)
			}
		}
	}
}

func TestSource_RecoversWhenResourceReturns(t *testing.T) {
	h := newHarness(t, Defaults(), nil)
	h.factory.available = false
	h.src.Tick(1)
	h.factory.available = true
	h.src.Tick(1.5)
	if h.src.Attached() {
		t.Fatal("attached before the retry interval elapsed")
	}
	h.src.Tick(1.5)

	if !h.src.Attached() {
		t.Fatalf("expected attached after retry interval, state=%s", h.src.State())
	}
	if h.src.FailedAttempts() != 0 {
		t.Fatalf("failed attempts = %d, want reset to 0", h.src.FailedAttempts())
	}
}

func TestSource_UpdateResetsAndReacquiresImmediately(t *testing.T) {
	h := newHarness(t, Defaults(), nil,
		MonitorInfo{Width: 1920, Height: 1080},
		MonitorInfo{X: 1920, Width: 2560, Height: 1440},
	)
	h.src.Tick(frame)
	first := h.factory.last

	s := Defaults()
	s.Monitor = 1
	h.src.Update(s)

	if !first.closed {
		t.Fatal("expected previous duplicator closed on update")
	}
	if !h.src.CaptureRegion().Empty() || !h.src.DisplayRegion().Empty() || !h.src.TargetRegion().Empty() {
		t.Fatal("expected geometry reset on update")
	}
	if h.src.Width() != 0 || h.src.Height() != 0 {
		t.Fatalf("size = %dx%d after update, want 0x0", h.src.Width(), h.src.Height())
	}

	h.src.Tick(frame)
	if got := h.factory.createdMonitors; len(got) != 2 || got[1] != 1 {
		t.Fatalf("created monitors = %v, want second create for monitor 1", got)
	}
	want := Region{X: 1920, Width: 2560, Height: 1440}
	if h.src.DisplayRegion() != want {
		t.Fatalf("display = %v, want %v", h.src.DisplayRegion(), want)
	}
}

func TestSource_HiddenReleasesAndShownReacquires(t *testing.T) {
	h := newHarness(t, Defaults(), nil)
	h.src.Tick(frame)
	first := h.factory.last

	h.visible.hidden = true
	h.src.Tick(frame)

	if !first.closed {
		t.Fatal("expected duplicator closed while hidden")
	}
	if h.src.State() != Detached {
		t.Fatalf("state = %s, want detached", h.src.State())
	}
	if h.cursor.frees != 1 {
		t.Fatalf("cursor frees = %d, want 1", h.cursor.frees)
	}
	if !h.src.CaptureRegion().Empty() {
		t.Fatalf("capture = %v, want empty while hidden", h.src.CaptureRegion())
	}

	// Staying hidden does not create or free anything.
	for i := 0; i < 600; i++ {
		h.src.Tick(frame)
	}
	if h.factory.creates != 1 || h.cursor.frees != 1 {
		t.Fatalf("hidden ticks touched resources: creates=%d frees=%d", h.factory.creates, h.cursor.frees)
	}

	h.visible.hidden = false
	h.src.Tick(frame)
	if h.factory.creates != 2 || !h.src.Attached() {
		t.Fatalf("expected immediate reacquire on show, creates=%d state=%s", h.factory.creates, h.src.State())
	}
}

func TestSource_FrameStaleTearsDown(t *testing.T) {
	h := newHarness(t, Defaults(), nil)
	h.src.Tick(frame)
	dup := h.factory.last
	dup.updateErr = errors.New("access lost")

	h.src.Tick(frame)

	if !dup.closed || h.src.Attached() {
		t.Fatal("expected duplicator torn down after frame failure")
	}
	if len(h.observer.stale) != 1 || !errors.Is(h.observer.stale[0], ErrFrameStale) {
		t.Fatalf("stale events = %v, want one wrapping ErrFrameStale", h.observer.stale)
	}
	if !h.src.DisplayRegion().Empty() {
		t.Fatal("expected geometry reset after frame failure")
	}
	rec := &recorder{}
	h.src.Render(rec)
	if len(rec.calls) != 0 {
		t.Fatalf("render after teardown drew %v", rec.ops())
	}

	// The retry timer restarts from zero after teardown.
	h.src.Tick(RetryInterval / 2)
	if h.factory.creates != 1 {
		t.Fatalf("creates = %d before retry interval, want 1", h.factory.creates)
	}
	h.src.Tick(RetryInterval / 2)
	if h.factory.creates != 2 || !h.src.Attached() {
		t.Fatalf("expected reattach after retry interval, creates=%d", h.factory.creates)
	}
}

func TestSource_StateEvents(t *testing.T) {
	h := newHarness(t, Defaults(), nil)
	h.factory.available = false
	h.src.Tick(frame)
	h.factory.available = true
	h.src.Tick(RetryInterval)
	h.visible.hidden = true
	h.src.Tick(frame)

	want := []LifecycleState{Pending, Attached, Detached}
	if len(h.observer.states) != len(want) {
		t.Fatalf("states = %v, want %v", h.observer.states, want)
	}
	for i := range want {
		if h.observer.states[i] != want[i] {
			t.Fatalf("states = %v, want %v", h.observer.states, want)
		}
	}
}

func TestSource_FollowsForegroundWindow(t *testing.T) {
	client := Region{X: 100, Y: 100, Width: 800, Height: 600}
	s := Defaults()
	s.CaptureForegroundWindow = true
	h := newHarness(t, s, newStubWindow(client))

	h.src.Tick(frame)
	display := Region{Width: 1920, Height: 1080}
	if h.src.CaptureRegion() != display {
		t.Fatalf("capture = %v after first tick, want display %v", h.src.CaptureRegion(), display)
	}

	// 0.01s gives a blend factor of 0.3.
	h.src.Tick(0.01)
	if h.src.TargetRegion() != client {
		t.Fatalf("target = %v, want %v", h.src.TargetRegion(), client)
	}
	want := Region{X: 70, Y: 70, Width: 1136, Height: 744}
	if h.src.CaptureRegion() != want {
		t.Fatalf("capture after one step = %v, want %v", h.src.CaptureRegion(), want)
	}
	events := len(h.observer.targets)
	if events == 0 || h.observer.targets[events-1] != client {
		t.Fatalf("target events = %v, want last %v", h.observer.targets, client)
	}

	for i := 0; i < 50; i++ {
		h.src.Tick(0.01)
	}
	if h.src.CaptureRegion() != client {
		t.Fatalf("capture = %v, want converged to %v", h.src.CaptureRegion(), client)
	}
	if h.src.Width() != 800 || h.src.Height() != 600 {
		t.Fatalf("size = %dx%d, want 800x600", h.src.Width(), h.src.Height())
	}
	if len(h.observer.targets) != events {
		t.Fatalf("unchanged target reported again: %v", h.observer.targets)
	}

	rec := &recorder{}
	h.src.Render(rec)
	sprite, _ := rec.find("sprite")
	if sprite.sx != 100 || sprite.sy != 100 || sprite.sw != 800 || sprite.sh != 600 {
		t.Fatalf("sprite = %+v, want client subregion", sprite)
	}
	if d := h.cursor.draws[0]; d.offsetX != -100 || d.offsetY != -100 || d.clipW != 800 || d.clipH != 600 {
		t.Fatalf("cursor draw = %+v", d)
	}
}

func TestSource_DisqualifiedWindowFallsBackToDisplay(t *testing.T) {
	client := Region{X: 100, Y: 100, Width: 800, Height: 600}
	display := Region{Width: 1920, Height: 1080}

	tests := []struct {
		name   string
		mutate func(w *stubWindows)
	}{
		{"no foreground window", func(w *stubWindows) { w.foreground = 0 }},
		{"other monitor", func(w *stubWindows) { w.monitorOf[7] = 2 }},
		{"no caption", func(w *stubWindows) { w.caption[7] = false }},
		{"no client rect", func(w *stubWindows) { delete(w.client, 7) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			windows := newStubWindow(client)
			s := Defaults()
			s.CaptureForegroundWindow = true
			h := newHarness(t, s, windows)
			tt.mutate(windows)

			h.src.Tick(frame)
			for i := 0; i < 10; i++ {
				h.src.Tick(0.01)
			}
			if h.src.TargetRegion() != display || h.src.CaptureRegion() != display {
				t.Fatalf("target %v capture %v, want display %v",
					h.src.TargetRegion(), h.src.CaptureRegion(), display)
			}
			if len(h.observer.targets) != 0 {
				t.Fatalf("unexpected target events %v", h.observer.targets)
			}
		})
	}
}

func TestSource_NoTargetEventBeforeGeometry(t *testing.T) {
	client := Region{X: 100, Y: 100, Width: 800, Height: 600}
	s := Defaults()
	s.CaptureForegroundWindow = true
	h := newHarness(t, s, newStubWindow(client))
	h.factory.available = false

	h.src.Tick(frame)
	if len(h.observer.targets) != 0 {
		t.Fatalf("target events without a frame = %v", h.observer.targets)
	}
	h.factory.available = true
	h.src.Tick(RetryInterval)
	if len(h.observer.targets) != 0 {
		t.Fatalf("target events before geometry = %v", h.observer.targets)
	}
	if h.src.TargetRegion() != h.src.DisplayRegion() {
		t.Fatalf("target = %v, want display %v", h.src.TargetRegion(), h.src.DisplayRegion())
	}

	h.src.Tick(frame)
	if len(h.observer.targets) != 1 || h.observer.targets[0] != client {
		t.Fatalf("target events = %v, want [%v]", h.observer.targets, client)
	}
}

func TestSource_LogsUnfollowedWindowOncePerReason(t *testing.T) {
	client := Region{X: 100, Y: 100, Width: 800, Height: 600}
	windows := newStubWindow(client)
	windows.caption[7] = false
	s := Defaults()
	s.CaptureForegroundWindow = true
	h := newHarness(t, s, windows)

	var buf bytes.Buffer
	h.src.log = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	count := func() int { return strings.Count(buf.String(), "foreground window not followed") }

	for i := 0; i < 30; i++ {
		h.src.Tick(frame)
	}
	if n := count(); n != 1 {
		t.Fatalf("logged %d times while disqualified, want 1", n)
	}

	windows.foreground = 0
	h.src.Tick(frame)
	if n := count(); n != 2 {
		t.Fatalf("logged %d times after reason changed, want 2", n)
	}

	windows.foreground = 7
	windows.caption[7] = true
	h.src.Tick(frame)
	windows.caption[7] = false
	h.src.Tick(frame)
	if n := count(); n != 3 {
		t.Fatalf("logged %d times after window followed again, want 3", n)
	}
}

func TestSource_FollowsTopLevelAncestor(t *testing.T) {
	client := Region{X: 10, Y: 20, Width: 640, Height: 480}
	windows := newStubWindow(client)
	windows.foreground = 9
	windows.parents[9] = 8
	windows.parents[8] = 7

	s := Defaults()
	s.CaptureForegroundWindow = true
	h := newHarness(t, s, windows)
	h.src.Tick(frame)
	h.src.Tick(frame)

	if h.src.TargetRegion() != client {
		t.Fatalf("target = %v, want top-level client %v", h.src.TargetRegion(), client)
	}
}

func TestSource_PropertiesListsMonitors(t *testing.T) {
	h := newHarness(t, Defaults(), nil,
		MonitorInfo{Width: 1920, Height: 1080},
		MonitorInfo{X: -1280, Y: 0, Width: 1280, Height: 1024},
	)
	entered := h.graphics.entered

	props := h.src.Properties()

	if h.graphics.entered != entered+1 || h.graphics.depth != 0 {
		t.Fatal("expected properties enumerated inside the graphics context")
	}
	p, ok := props.Get(KeyMonitor)
	if !ok || p.Kind != PropertyList {
		t.Fatalf("monitor property = %+v (found=%v)", p, ok)
	}
	want := []PropertyOption{
		{Label: "Monitor 1: 1920x1080 @ 0,0", Value: 0},
		{Label: "Monitor 2: 1280x1024 @ -1280,0", Value: 1},
	}
	if len(p.Options) != len(want) {
		t.Fatalf("options = %+v, want %+v", p.Options, want)
	}
	for i := range want {
		if p.Options[i] != want[i] {
			t.Fatalf("option %d = %+v, want %+v", i, p.Options[i], want[i])
		}
	}
	for _, key := range []string{KeyCaptureCursor, KeyCaptureForegroundWindow} {
		if p, ok := props.Get(key); !ok || p.Kind != PropertyBool {
			t.Fatalf("property %q = %+v (found=%v)", key, p, ok)
		}
	}
}

func TestSource_DestroyReleases(t *testing.T) {
	h := newHarness(t, Defaults(), nil)
	h.src.Tick(frame)
	dup := h.factory.last

	h.src.Destroy()

	if !dup.closed || h.cursor.frees != 1 || h.graphics.depth != 0 {
		t.Fatalf("destroy: closed=%v frees=%d depth=%d", dup.closed, h.cursor.frees, h.graphics.depth)
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Defaults(), Deps{Duplicators: newStubFactory(nil)}); err == nil {
		t.Fatal("expected error without graphics context")
	}
	if _, err := New(Defaults(), Deps{Graphics: &stubGraphics{}}); err == nil {
		t.Fatal("expected error without duplicator factory")
	}
}

func equalOps(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
