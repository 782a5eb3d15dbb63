package pulse

import (
	"context"
	"sync"

	"github.com/zoobzio/capitan"
)

// pending is an observable awaiting its deferred change notification.
type pending interface {
	flush()
}

// Batcher coalesces writes performed during a batch into one notification
// per observable at batch completion.
//
// A Batcher is an explicit batching context: observables opt in with
// WithBatcher and only writes to those observables are deferred. While a
// batch is active, writes update the observable's value immediately (reads
// inside the batch observe new values) but suppress notification. When the
// outermost Run returns, every pending observable notifies exactly once with
// its value at flush time, regardless of how many writes it received.
type Batcher struct {
	mu      sync.Mutex
	depth   int
	queue   []pending
	queued  map[pending]struct{}
	metrics MetricsProvider
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// WithBatchMetrics sets a metrics provider that receives a callback on every
// batch flush.
func WithBatchMetrics(provider MetricsProvider) BatcherOption {
	return func(b *Batcher) {
		b.metrics = provider
	}
}

// NewBatcher creates a batching context.
func NewBatcher(opts ...BatcherOption) *Batcher {
	b := &Batcher{
		queued: make(map[pending]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run executes fn with batching active. Nested Run calls collapse into the
// single outermost flush: inner calls observe the batch already open and do
// not flush early.
//
// The flush and the reset of all batching state happen unconditionally when
// fn completes, whether it returns nil, returns an error, or panics. fn's
// error (or panic) propagates to the caller after the flush. Pending
// observables flush in first-write order.
func (b *Batcher) Run(fn func() error) error {
	b.mu.Lock()
	b.depth++
	b.mu.Unlock()

	defer b.finish()

	return fn()
}

// Active reports whether a batch is currently open.
func (b *Batcher) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depth > 0
}

// Pending returns the number of observables awaiting flush.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// enqueue records p for deferred notification. It returns false when no
// batch is open, in which case the caller notifies immediately. An
// observable written multiple times during one batch is recorded once.
func (b *Batcher) enqueue(p pending) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.depth == 0 {
		return false
	}
	if _, ok := b.queued[p]; !ok {
		b.queued[p] = struct{}{}
		b.queue = append(b.queue, p)
	}
	return true
}

// finish closes one nesting level and, when the outermost level exits,
// drains the pending set and delivers the deferred notifications. The
// pending set is cleared before dispatch so batching state stays consistent
// even if a flushed listener panics.
func (b *Batcher) finish() {
	b.mu.Lock()
	b.depth--
	if b.depth > 0 {
		b.mu.Unlock()
		return
	}
	queue := b.queue
	b.queue = nil
	b.queued = make(map[pending]struct{})
	b.mu.Unlock()

	if len(queue) == 0 {
		return
	}

	for _, p := range queue {
		p.flush()
	}

	capitan.Emit(context.Background(), BatchFlushed,
		KeyPendingCount.Field(len(queue)),
	)
	if b.metrics != nil {
		b.metrics.OnBatchFlush(len(queue))
	}
}
