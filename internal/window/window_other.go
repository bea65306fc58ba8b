//go:build !windows && !linux

package window

// Open reports ErrUnsupported; follow-window falls back to the display.
func Open() (System, error) {
	return nil, ErrUnsupported
}
