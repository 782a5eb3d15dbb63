package pulse

import "sync"

// errorRing is a fixed-capacity ring buffer of recent errors.
// A nil ring is valid and discards everything.
type errorRing struct {
	mu     sync.RWMutex
	errors []error
	head   int
	count  int
}

// newErrorRing creates a ring retaining up to size errors.
// Size zero or negative returns a nil (disabled) ring.
func newErrorRing(size int) *errorRing {
	if size <= 0 {
		return nil
	}
	return &errorRing{
		errors: make([]error, size),
	}
}

func (r *errorRing) push(err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors[r.head] = err
	r.head = (r.head + 1) % len(r.errors)
	if r.count < len(r.errors) {
		r.count++
	}
}

// all returns retained errors, oldest first.
func (r *errorRing) all() []error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}

	size := len(r.errors)
	out := make([]error, r.count)
	start := (r.head - r.count + size) % size
	for i := 0; i < r.count; i++ {
		out[i] = r.errors[(start+i)%size]
	}
	return out
}

func (r *errorRing) clear() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.errors {
		r.errors[i] = nil
	}
	r.head = 0
	r.count = 0
}
