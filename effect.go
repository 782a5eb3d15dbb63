package pulse

import (
	"context"
	"sync"

	"github.com/zoobzio/capitan"
)

// DefaultEffectErrorHistory is the number of callback errors retained by the
// default binder.
const DefaultEffectErrorHistory = 16

// EffectFunc is a side-effecting callback bound to observable changes.
// A non-nil error return is recorded and emitted via the EffectFailed
// signal; it is never propagated into the notification chain, so one
// failing effect cannot break another dependency's subscribers.
type EffectFunc func() error

// Binder attaches side-effecting callbacks to observables and records
// callback failures.
type Binder struct {
	history *errorRing
}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithEffectErrorHistory sets how many recent callback errors the binder
// retains. Zero disables retention; failures are still emitted as signals.
func WithEffectErrorHistory(n int) BinderOption {
	return func(b *Binder) {
		b.history = newErrorRing(n)
	}
}

// NewBinder creates an effect binder.
func NewBinder(opts ...BinderOption) *Binder {
	b := &Binder{
		history: newErrorRing(DefaultEffectErrorHistory),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Effect subscribes fn to every dependency's change notification and
// returns a single detach function covering all of them.
//
// A nil dependency fails with ErrInvalidDependency before any subscription
// is made. With zero dependencies no subscription is performed and the
// returned detach function is a safe no-op; the callback never executes
// automatically. The detach function is idempotent.
func (b *Binder) Effect(fn EffectFunc, deps ...Dependency) (func(), error) {
	for _, dep := range deps {
		if dep == nil {
			return nil, ErrInvalidDependency
		}
	}

	if len(deps) == 0 {
		return func() {}, nil
	}

	run := func() {
		if err := fn(); err != nil {
			b.history.push(err)
			capitan.Emit(context.Background(), EffectFailed,
				KeyError.Field(err.Error()),
			)
		}
	}

	detaches := make([]func(), 0, len(deps))
	for _, dep := range deps {
		detaches = append(detaches, dep.subscribeChange(run))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, detach := range detaches {
				detach()
			}
		})
	}, nil
}

// Errors returns the recorded callback errors, oldest first.
func (b *Binder) Errors() []error {
	return b.history.all()
}

// ClearErrors discards the recorded callback errors.
func (b *Binder) ClearErrors() {
	b.history.clear()
}

// defaultBinder backs the package-level Effect helper.
var defaultBinder = NewBinder()

// Effect binds fn to deps using a shared package-level binder.
// See Binder.Effect.
func Effect(fn EffectFunc, deps ...Dependency) (func(), error) {
	return defaultBinder.Effect(fn, deps...)
}
