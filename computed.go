package pulse

// Computed is an Observable whose contents are a pure function of one or
// more source observables. It recomputes synchronously and eagerly: after
// any source changes, the computed value is already consistent before any
// listener subscribed after construction observes the change.
//
// Recomputed values are written through the normal Observable write path,
// so they participate in equality suppression and batching like any other
// write. A transform that panics propagates out of the triggering write;
// no recovery is attempted.
type Computed[V any] struct {
	*Observable[V]

	detaches []func()
}

// NewComputed builds a computed observable. transform is called once,
// eagerly, to produce the initial value, and again after every change to
// any source. transform must read current source values itself and must be
// pure.
//
// The source subscriptions are registered at construction time, so the
// computed value is notified before any listener attached to the same
// sources afterward. Subscribe to sources, then derive, then attach
// effects, in that order, to get consistent views.
//
// The caller owns the source subscriptions: call UnsubscribeSources when the
// computed value is no longer needed, or it keeps recomputing forever.
func NewComputed[V any](transform func() V, sources []Dependency, opts ...ObservableOption[V]) *Computed[V] {
	c := &Computed[V]{
		Observable: New(transform(), opts...),
	}

	recompute := func() {
		c.Observable.Set(transform())
	}
	for _, src := range sources {
		c.detaches = append(c.detaches, src.subscribeChange(recompute))
	}

	return c
}

// UnsubscribeSources detaches the computed value from every source. After
// the call the value is stale and never updates again. This is a deliberate
// escape hatch, not automatic disposal; calling it more than once is a
// no-op.
func (c *Computed[V]) UnsubscribeSources() {
	for _, detach := range c.detaches {
		detach()
	}
}
