package window

import (
	"image"
	"testing"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

func TestNearestMonitor(t *testing.T) {
	monitors := []image.Rectangle{
		image.Rect(0, 0, 1920, 1080),
		image.Rect(1920, 0, 3200, 1024),
	}
	tests := []struct {
		p    image.Point
		want int
	}{
		{image.Pt(0, 0), 0},
		{image.Pt(1919, 500), 0},
		{image.Pt(1920, 500), 1},
		{image.Pt(5000, 100), 1},
		{image.Pt(-50, -50), 0},
		{image.Pt(2500, 1060), 1},
	}
	for _, tt := range tests {
		if got := nearestMonitor(monitors, tt.p); got != tt.want {
			t.Errorf("nearestMonitor(%v) = %d, want %d", tt.p, got, tt.want)
		}
	}
	if got := nearestMonitor(nil, image.Pt(0, 0)); got != -1 {
		t.Errorf("nearestMonitor(nil) = %d, want -1", got)
	}
}

func TestCenter(t *testing.T) {
	r := capture.Region{X: 100, Y: -50, Width: 200, Height: 100}
	if got := center(r); got != image.Pt(200, 0) {
		t.Fatalf("center = %v", got)
	}
}
