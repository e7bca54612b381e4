package vigil

import (
	"sync"
	"time"
)

// Failure records one failed cycle.
type Failure struct {
	Cycle uint64
	Stage string
	Err   error
	At    time.Time
}

// failureRing keeps the most recent failures, oldest evicted first.
// A nil ring is valid and records nothing.
type failureRing struct {
	mu    sync.RWMutex
	slots []Failure
	next  int
	count int
}

func newFailureRing(size int) *failureRing {
	if size <= 0 {
		return nil
	}
	return &failureRing{slots: make([]Failure, size)}
}

func (r *failureRing) push(f Failure) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots[r.next] = f
	r.next = (r.next + 1) % len(r.slots)
	r.count = min(r.count+1, len(r.slots))
}

func (r *failureRing) reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.slots)
	r.next = 0
	r.count = 0
}

// snapshot returns the retained failures, oldest first, or nil when empty.
func (r *failureRing) snapshot() []Failure {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}
	out := make([]Failure, 0, r.count)
	first := (r.next - r.count + len(r.slots)) % len(r.slots)
	for i := range r.count {
		out = append(out, r.slots[(first+i)%len(r.slots)])
	}
	return out
}
