package domain

import "sync"

// Ring is a fixed-capacity FIFO detection buffer.
// Appends evict the oldest entry once full; reads copy out under a read
// lock so iteration stays consistent during concurrent writes
type Ring struct {
	mu    sync.RWMutex
	buf   []Detection
	start int // index of the oldest entry
	size  int
}

// NewRing builds a ring holding at most capacity detections
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{buf: make([]Detection, capacity)}
}

// Append stores d, evicting the oldest entry when full
func (r *Ring) Append(d Detection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = d
		r.size++
		return
	}
	r.buf[r.start] = d
	r.start = (r.start + 1) % len(r.buf)
}

// Len reports the number of stored detections
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Snapshot returns the stored detections oldest first
func (r *Ring) Snapshot() []Detection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Detection, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
