// Package host drives a capture source the way a compositor would: a fixed
// rate tick and render loop on one locked OS thread, visibility control,
// persisted settings, snapshots and an HTTP surface for metrics, health and
// preview.
package host

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
	"github.com/breeze-rmm/monitorcapture/internal/graphics"
	"github.com/breeze-rmm/monitorcapture/internal/logging"
	"github.com/breeze-rmm/monitorcapture/internal/workerpool"
)

var log = logging.L("host")

// DefaultFPS is used when Options.FPS is not positive.
const DefaultFPS = 60

// FrameObserver receives per-frame measurements. *metrics.Metrics
// implements it.
type FrameObserver interface {
	ObserveTick(width, height uint32)
	ObserveRender(d time.Duration)
}

// Publisher consumes rendered frames. *preview.Hub implements it.
type Publisher interface {
	// Due reports whether a frame published at now would be used.
	Due(now time.Time) bool
	Publish(img *image.RGBA) error
}

type nopFrames struct{}

func (nopFrames) ObserveTick(uint32, uint32)  {}
func (nopFrames) ObserveRender(time.Duration) {}

type nopPublisher struct{}

func (nopPublisher) Due(time.Time) bool        { return false }
func (nopPublisher) Publish(*image.RGBA) error { return nil }

// Options configures a Runner.
type Options struct {
	FPS     int
	Device  *graphics.Device
	Frames  FrameObserver
	Preview Publisher
}

// Runner owns a source and calls it from a single goroutine locked to its
// OS thread. Every source call, including settings updates, goes through
// that goroutine.
type Runner struct {
	src      capture.Source
	device   *graphics.Device
	canvas   *graphics.Canvas
	interval time.Duration
	frames   FrameObserver
	preview  Publisher
	encoder  *workerpool.Pool
	pool     graphics.FramePool

	posts chan func()
	done  chan struct{}
	last  time.Time

	frameCount atomic.Uint64
}

// NewRunner prepares a runner for src. src must have been created with the
// same device passed in opts.
func NewRunner(src capture.Source, opts Options) *Runner {
	fps := opts.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	r := &Runner{
		src:      src,
		device:   opts.Device,
		canvas:   graphics.NewCanvas(0, 0),
		interval: time.Second / time.Duration(fps),
		frames:   opts.Frames,
		preview:  opts.Preview,
		encoder:  workerpool.New("preview", 1, 1),
		posts:    make(chan func(), 16),
		done:     make(chan struct{}),
	}
	if r.device == nil {
		r.device = graphics.NewDevice()
	}
	if r.frames == nil {
		r.frames = nopFrames{}
	}
	if r.preview == nil {
		r.preview = nopPublisher{}
	}
	return r
}

// Run ticks and renders the source until ctx is done, then destroys it.
func (r *Runner) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	release, err := initRenderThread()
	if err != nil {
		close(r.done)
		return fmt.Errorf("init render thread: %w", err)
	}
	defer release()
	defer close(r.done)

	defer func() {
		r.src.Destroy()
		drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		r.encoder.Drain(drainCtx)
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info("render loop started", "source", r.src.Name(), "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("render loop stopped", "frames", r.frameCount.Load())
			return nil
		case fn := <-r.posts:
			fn()
		case now := <-ticker.C:
			r.Frame(now)
		}
	}
}

// Post schedules fn on the render goroutine. It returns false once Run has
// exited.
func (r *Runner) Post(fn func()) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.posts <- fn:
		return true
	case <-r.done:
		return false
	}
}

// Update applies settings on the render goroutine.
func (r *Runner) Update(settings capture.Settings) bool {
	return r.Post(func() { r.src.Update(settings) })
}

// Frame runs one tick and render pass stamped now. The first frame ticks
// with zero elapsed time.
func (r *Runner) Frame(now time.Time) {
	var seconds float64
	if !r.last.IsZero() {
		seconds = max(now.Sub(r.last).Seconds(), 0)
	}
	r.last = now

	r.src.Tick(seconds)
	w, h := r.src.Width(), r.src.Height()

	start := time.Now()
	r.device.Do(func() {
		r.canvas.Resize(int(w), int(h))
		r.src.Render(r.canvas)
	})
	r.frames.ObserveTick(w, h)
	r.frames.ObserveRender(time.Since(start))
	r.frameCount.Add(1)

	if w > 0 && h > 0 && r.preview.Due(now) {
		r.publish()
	}
}

func (r *Runner) publish() {
	img, ok := r.Snapshot()
	if !ok {
		return
	}
	submitted := r.encoder.Submit(func() {
		defer r.pool.Put(img)
		if err := r.preview.Publish(img); err != nil {
			log.Warn("preview publish failed", "error", err)
		}
	})
	if !submitted {
		r.pool.Put(img)
	}
}

// Snapshot copies the last rendered frame. ok is false until a non-empty
// frame has been rendered. Pass the image to Release when done with it.
func (r *Runner) Snapshot() (img *image.RGBA, ok bool) {
	r.device.Do(func() {
		src := r.canvas.Image()
		if src == nil || src.Bounds().Empty() {
			return
		}
		img = r.pool.Clone(src)
	})
	return img, img != nil
}

// Release returns a snapshot to the frame pool.
func (r *Runner) Release(img *image.RGBA) { r.pool.Put(img) }

// Frames returns the number of frames rendered.
func (r *Runner) Frames() uint64 { return r.frameCount.Load() }
