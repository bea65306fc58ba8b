// Package graphics is the software rendering device that backs capture
// sources: a device lock, CPU textures, and a canvas with a matrix stack.
package graphics

import "sync"

// Device serializes every access to rendering resources. It implements
// capture.GraphicsContext.
type Device struct {
	mu sync.Mutex
}

// NewDevice returns an idle device.
func NewDevice() *Device {
	return &Device{}
}

// Enter acquires the device. Calls do not nest.
func (d *Device) Enter() { d.mu.Lock() }

// Leave releases the device.
func (d *Device) Leave() { d.mu.Unlock() }

// Do runs fn with the device held.
func (d *Device) Do(fn func()) {
	d.Enter()
	defer d.Leave()
	fn()
}
