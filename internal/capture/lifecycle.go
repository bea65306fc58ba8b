package capture

import (
	"errors"
	"fmt"
)

// RetryInterval is the minimum number of seconds between two attempts to
// create the duplication resource.
const RetryInterval = 3.0

// LifecycleState is the state of the duplication resource.
type LifecycleState int

const (
	// Detached: no resource held and the retry timer restarted.
	Detached LifecycleState = iota
	// Pending: no resource held, waiting for the retry timer.
	Pending
	// Attached: resource held and producing frames.
	Attached
)

func (s LifecycleState) String() string {
	switch s {
	case Detached:
		return "detached"
	case Pending:
		return "pending"
	case Attached:
		return "attached"
	default:
		return fmt.Sprintf("LifecycleState(%d)", int(s))
	}
}

// lifecycle owns the duplication handle and its retry timer. Callers hold the
// graphics context around every method that touches the handle.
type lifecycle struct {
	factory DuplicatorFactory
	dup     Duplicator
	timer   float64
	state   LifecycleState
	// attempts counts consecutive failed creations since the last success.
	attempts int
}

// attached reports whether a duplication handle is held.
func (l *lifecycle) attached() bool {
	return l.dup != nil
}

// release destroys the handle, if any, and restarts the retry timer from zero.
func (l *lifecycle) release() {
	if l.dup != nil {
		if err := l.dup.Close(); err != nil {
			log.Debug("closing duplicator", "error", err)
		}
		l.dup = nil
	}
	l.timer = 0
	l.state = Detached
}

// armImmediate makes the next ensure call attempt creation without waiting.
func (l *lifecycle) armImmediate() {
	l.timer = RetryInterval
}

// ensure advances the retry timer by seconds and attempts creation once the
// interval has elapsed. It returns the creation error, if an attempt was made
// and failed.
func (l *lifecycle) ensure(monitor int, seconds float64) (attempted bool, err error) {
	if l.dup != nil {
		return false, nil
	}

	l.timer += seconds
	if l.timer < RetryInterval {
		l.state = Pending
		return false, nil
	}

	l.timer = 0
	dup, err := l.factory.Create(monitor)
	if err == nil && dup == nil {
		err = ErrResourceUnavailable
	}
	if err != nil {
		if !errors.Is(err, ErrResourceUnavailable) {
			err = fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
		}
		l.attempts++
		l.state = Pending
		return true, err
	}

	l.dup = dup
	l.attempts = 0
	l.state = Attached
	return true, nil
}

// pull fetches the latest frame. On failure the handle is released and the
// returned error wraps ErrFrameStale.
func (l *lifecycle) pull() error {
	if l.dup == nil {
		return nil
	}
	if err := l.dup.UpdateFrame(); err != nil {
		l.release()
		if !errors.Is(err, ErrFrameStale) {
			err = fmt.Errorf("%w: %w", ErrFrameStale, err)
		}
		return err
	}
	return nil
}

// texture returns the current frame texture, or nil.
func (l *lifecycle) texture() Texture {
	if l.dup == nil {
		return nil
	}
	return l.dup.Texture()
}
