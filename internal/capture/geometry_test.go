package capture

import (
	"errors"
	"math"
	"testing"
)

func TestSmooth_Idempotent(t *testing.T) {
	r := Region{X: -10, Y: 5, Width: 300, Height: 200}
	for _, d := range []float64{0, 0.001, 1.0 / 60, 0.5, 2} {
		if got := Smooth(r, r, d); got != r {
			t.Fatalf("Smooth(r, r, %v) = %v, want %v", d, got, r)
		}
	}
}

func TestSmooth_Converges(t *testing.T) {
	current := Region{X: 0, Y: 0, Width: 1920, Height: 1080}
	target := Region{X: 400, Y: -300, Width: 640, Height: 480}

	for i := 0; i < 100 && current != target; i++ {
		current = Smooth(current, target, 0.01)
	}
	if current != target {
		t.Fatalf("did not converge: %v", current)
	}
}

func TestSmooth_ConvergesAtSixtyFPS(t *testing.T) {
	current := Region{X: 0, Y: 0, Width: 1920, Height: 1080}
	target := Region{X: 100, Y: 100, Width: 800, Height: 600}

	for i := 0; i < 1000 && current != target; i++ {
		current = Smooth(current, target, 1.0/60)
	}
	if current != target {
		t.Fatalf("did not converge at 60 fps: %v", current)
	}
}

func TestSmooth_HalfwayTiesRoundTowardTarget(t *testing.T) {
	target := Region{X: 100, Y: 100, Width: 800, Height: 600}
	tests := []Region{
		{X: 101, Y: 101, Width: 801, Height: 601},
		{X: 99, Y: 99, Width: 799, Height: 599},
	}
	for _, current := range tests {
		if got := Smooth(current, target, 1.0/60); got != target {
			t.Errorf("Smooth(%v) = %v, want %v", current, got, target)
		}
	}
}

func TestSmooth_ZeroElapsedJumpsToTarget(t *testing.T) {
	current := Region{Width: 100, Height: 100}
	target := Region{X: 50, Y: 50, Width: 10, Height: 10}
	if got := Smooth(current, target, 0); got != target {
		t.Fatalf("Smooth with zero elapsed = %v, want %v", got, target)
	}
}

func TestSmooth_FactorOneDoesNotMove(t *testing.T) {
	current := Region{Width: 100, Height: 100}
	target := Region{X: 50, Y: 50, Width: 10, Height: 10}
	if got := Smooth(current, target, 1.0/smoothingRate); got != current {
		t.Fatalf("Smooth with factor 1 = %v, want unchanged %v", got, current)
	}
}

func TestEffectiveSize(t *testing.T) {
	capture := Region{Width: 1920, Height: 1080}
	tests := []struct {
		rotation int
		w, h     uint32
	}{
		{0, 1920, 1080},
		{90, 1080, 1920},
		{180, 1920, 1080},
		{270, 1080, 1920},
	}
	for _, tt := range tests {
		w, h := EffectiveSize(tt.rotation, capture)
		if w != tt.w || h != tt.h {
			t.Errorf("rotation %d: %dx%d, want %dx%d", tt.rotation, w, h, tt.w, tt.h)
		}
	}
}

func TestDrawTransform(t *testing.T) {
	capture := Region{Width: 1920, Height: 1080}
	tests := []struct {
		rotation int
		want     Transform
	}{
		{0, Transform{}},
		{90, Transform{TranslateX: 1080, Radians: math.Pi / 2}},
		{180, Transform{TranslateX: 1920, TranslateY: 1080, Radians: math.Pi}},
		{270, Transform{TranslateY: 1920, Radians: 3 * math.Pi / 2}},
	}
	for _, tt := range tests {
		got := DrawTransform(tt.rotation, capture)
		if got.TranslateX != tt.want.TranslateX || got.TranslateY != tt.want.TranslateY ||
			math.Abs(got.Radians-tt.want.Radians) > 1e-12 {
			t.Errorf("rotation %d: %+v, want %+v", tt.rotation, got, tt.want)
		}
	}
	if !DrawTransform(0, capture).Identity() {
		t.Error("rotation 0 should be the identity")
	}
}

func TestRegion(t *testing.T) {
	r := Region{X: 10, Y: -20, Width: 300, Height: 200}
	if r.String() != "10, -20 (300 x 200)" {
		t.Fatalf("String() = %q", r.String())
	}
	if got := RegionFromRect(r.Rect()); got != r {
		t.Fatalf("rect round trip = %v, want %v", got, r)
	}
	if !(Region{X: 5}).Empty() {
		t.Fatal("zero-sized region should be empty")
	}
}

func TestMonitors_StopsAtFirstMissingIndex(t *testing.T) {
	f := newStubFactory(nil,
		MonitorInfo{Width: 1920, Height: 1080},
		MonitorInfo{X: 1920, Width: 1280, Height: 1024},
	)
	calls := 0
	lookup := func(i int) (MonitorInfo, error) {
		calls++
		return f.MonitorInfo(i)
	}

	var got []string
	for _, desc := range Monitors(lookup) {
		got = append(got, desc)
	}
	want := []string{"Monitor 1: 1920x1080 @ 0,0", "Monitor 2: 1280x1024 @ 1920,0"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("monitors = %v, want %v", got, want)
	}
	if calls != 3 {
		t.Fatalf("lookups = %d, want 3", calls)
	}

	// A fresh range starts over from index 0.
	n := 0
	for i := range Monitors(lookup) {
		if i != n {
			t.Fatalf("index = %d, want %d", i, n)
		}
		n++
	}
	if n != 2 {
		t.Fatalf("second pass yielded %d monitors, want 2", n)
	}

	// Breaking early stops querying.
	calls = 0
	for range Monitors(lookup) {
		break
	}
	if calls != 1 {
		t.Fatalf("lookups after early break = %d, want 1", calls)
	}
}

func TestBuildProperties_NoMonitors(t *testing.T) {
	props := BuildProperties(func(int) (MonitorInfo, error) { return MonitorInfo{}, ErrMonitorNotFound })
	p, ok := props.Get(KeyMonitor)
	if !ok || len(p.Options) != 0 {
		t.Fatalf("monitor property = %+v, want no options", p)
	}
	if len(props.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(props.Items))
	}
}

func TestLifecycle_WrapsCreateErrors(t *testing.T) {
	f := newStubFactory(nil)
	f.available = false
	f.createErr = errors.New("E_ACCESSDENIED")
	l := lifecycle{factory: f}
	l.armImmediate()

	attempted, err := l.ensure(0, 0)
	if !attempted || !errors.Is(err, ErrResourceUnavailable) {
		t.Fatalf("ensure = %v, %v; want attempted ErrResourceUnavailable", attempted, err)
	}
	if !errors.Is(err, f.createErr) {
		t.Fatalf("cause lost: %v", err)
	}
	if l.state != Pending || l.attempts != 1 {
		t.Fatalf("state=%s attempts=%d", l.state, l.attempts)
	}
}

func TestLifecycleState_String(t *testing.T) {
	for s, want := range map[LifecycleState]string{Detached: "detached", Pending: "pending", Attached: "attached"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
