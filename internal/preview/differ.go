package preview

import (
	"hash/crc32"
	"sync"
	"sync/atomic"
)

// frameDiffer detects unchanged frames via a CRC32 of the raw pixels.
type frameDiffer struct {
	mu          sync.Mutex
	lastHash    uint32
	hasLastHash bool
	skipped     atomic.Uint64
	total       atomic.Uint64
}

// changed reports whether pix differs from the last frame it accepted. The
// first frame is always a change.
func (d *frameDiffer) changed(pix []byte) bool {
	d.total.Add(1)
	h := crc32.ChecksumIEEE(pix)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasLastHash && h == d.lastHash {
		d.skipped.Add(1)
		return false
	}
	d.lastHash = h
	d.hasLastHash = true
	return true
}

// reset forgets the last hash so the next frame is sent.
func (d *frameDiffer) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hasLastHash = false
}

func (d *frameDiffer) stats() (total, skipped uint64) {
	return d.total.Load(), d.skipped.Load()
}
