package host

import (
	"sync"
	"sync/atomic"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

// Visibility is the host's showing flag. It implements capture.Visibility
// and may be toggled from any goroutine.
type Visibility struct {
	showing atomic.Bool

	mu        sync.Mutex
	listeners []func(showing bool)
}

var _ capture.Visibility = (*Visibility)(nil)

func NewVisibility(showing bool) *Visibility {
	v := &Visibility{}
	v.showing.Store(showing)
	return v
}

func (v *Visibility) Showing() bool { return v.showing.Load() }

func (v *Visibility) Show() { v.set(true) }
func (v *Visibility) Hide() { v.set(false) }

// Toggle flips the flag and returns the new value.
func (v *Visibility) Toggle() bool {
	for {
		cur := v.showing.Load()
		if v.showing.CompareAndSwap(cur, !cur) {
			v.notify(!cur)
			return !cur
		}
	}
}

// OnChange registers fn to run on every transition.
func (v *Visibility) OnChange(fn func(showing bool)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

func (v *Visibility) set(showing bool) {
	if v.showing.Swap(showing) != showing {
		v.notify(showing)
	}
}

func (v *Visibility) notify(showing bool) {
	v.mu.Lock()
	listeners := append([]func(bool){}, v.listeners...)
	v.mu.Unlock()

	log.Info("visibility changed", "showing", showing)
	for _, fn := range listeners {
		fn(showing)
	}
}
