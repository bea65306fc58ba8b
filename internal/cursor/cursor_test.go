package cursor

import (
	"image"
	"testing"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

type fixedSampler struct {
	s  Sample
	ok bool
}

func (f fixedSampler) Sample() (Sample, bool) { return f.s, f.ok }

type imageCall struct {
	x, y, sx, sy float64
	clip         image.Rectangle
	size         image.Point
}

type drawRecorder struct {
	images []imageCall
}

func (r *drawRecorder) SetEffect(capture.Effect)                                          {}
func (r *drawRecorder) PushMatrix()                                                       {}
func (r *drawRecorder) PopMatrix()                                                        {}
func (r *drawRecorder) Translate(float64, float64)                                        {}
func (r *drawRecorder) Rotate(float64)                                                    {}
func (r *drawRecorder) DrawSpriteSubregion(capture.Texture, int32, int32, uint32, uint32) {}
func (r *drawRecorder) DrawImage(img image.Image, x, y, sx, sy float64, clip image.Rectangle) {
	r.images = append(r.images, imageCall{x, y, sx, sy, clip, img.Bounds().Size()})
}

func TestOverlay_DrawsAtOffsetMinusHotspot(t *testing.T) {
	o := NewWithSampler(fixedSampler{s: Sample{X: 500, Y: 300, HotX: 2, HotY: 3, Visible: true}, ok: true})
	o.Capture()

	rec := &drawRecorder{}
	o.Draw(rec, -100, -100, 1, 1, 800, 600)

	if len(rec.images) != 1 {
		t.Fatalf("draws = %d, want 1", len(rec.images))
	}
	got := rec.images[0]
	if got.x != 398 || got.y != 197 {
		t.Fatalf("position = (%v, %v), want (398, 197)", got.x, got.y)
	}
	if got.clip != image.Rect(0, 0, 800, 600) {
		t.Fatalf("clip = %v", got.clip)
	}
	if got.size != image.Pt(12, 20) {
		t.Fatalf("sprite size = %v, want 12x20", got.size)
	}
}

func TestOverlay_ScaleAppliesToPosition(t *testing.T) {
	o := NewWithSampler(fixedSampler{s: Sample{X: 100, Y: 50, Visible: true}, ok: true})
	o.Capture()
	rec := &drawRecorder{}
	o.Draw(rec, 0, 0, 0.5, 2, 100, 100)

	if got := rec.images[0]; got.x != 50 || got.y != 100 || got.sx != 0.5 || got.sy != 2 {
		t.Fatalf("draw = %+v", got)
	}
}

func TestOverlay_SkipsHiddenOrUnsampled(t *testing.T) {
	tests := []struct {
		name string
		s    fixedSampler
	}{
		{"no sample", fixedSampler{}},
		{"hidden", fixedSampler{s: Sample{X: 10, Y: 10}, ok: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewWithSampler(tt.s)
			o.Capture()
			rec := &drawRecorder{}
			o.Draw(rec, 0, 0, 1, 1, 100, 100)
			if len(rec.images) != 0 {
				t.Fatalf("drew %d images", len(rec.images))
			}
		})
	}
}

func TestOverlay_FreeForgetsSample(t *testing.T) {
	o := NewWithSampler(fixedSampler{s: Sample{Visible: true}, ok: true})
	o.Capture()
	o.Free()

	rec := &drawRecorder{}
	o.Draw(rec, 0, 0, 1, 1, 100, 100)
	if len(rec.images) != 0 {
		t.Fatal("drew after Free without a new capture")
	}
	o.Capture()
	o.Draw(rec, 0, 0, 1, 1, 100, 100)
	if len(rec.images) != 1 {
		t.Fatal("overlay unusable after Free")
	}
}

func TestArrowSprite(t *testing.T) {
	img := arrowSprite()
	if img.RGBAAt(0, 0).A != 0xff || img.RGBAAt(0, 0).R != 0 {
		t.Fatalf("tip = %v, want opaque black", img.RGBAAt(0, 0))
	}
	if img.RGBAAt(1, 2).R != 0xff {
		t.Fatalf("fill = %v, want white", img.RGBAAt(1, 2))
	}
	if img.RGBAAt(11, 0).A != 0 {
		t.Fatalf("corner = %v, want transparent", img.RGBAAt(11, 0))
	}
}
