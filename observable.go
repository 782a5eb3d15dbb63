package pulse

import (
	"reflect"
	"sync"
)

// changeKey is the single event key an Observable uses on its Notifier.
const changeKey = "change"

// Dependency is the type-erased subscription surface shared by Observable
// and Computed. It lets heterogeneous observables act as sources for
// computed values and effects.
type Dependency interface {
	// subscribeChange registers fn to run on every change notification and
	// returns an idempotent detach function.
	subscribeChange(fn func()) func()
}

// Observable is a single mutable value slot with change notification.
// It exclusively owns one Notifier scoped to a single change key.
//
// A change notification fires if and only if the newly assigned value is not
// equal to the current one; identical writes are complete no-ops. Equality
// defaults to == for common comparable types and reflect.DeepEqual
// otherwise; override with WithEquals.
type Observable[T any] struct {
	events *Notifier

	mu    sync.Mutex
	value T

	equal   func(T, T) bool
	batcher *Batcher
}

// ObservableOption configures an Observable at construction.
type ObservableOption[T any] func(*Observable[T])

// WithEquals sets a custom equality function used to suppress redundant
// notifications. Useful for types where reflect.DeepEqual is too expensive
// or has the wrong semantics.
func WithEquals[T any](fn func(T, T) bool) ObservableOption[T] {
	return func(o *Observable[T]) {
		o.equal = fn
	}
}

// WithBatcher binds the observable to a batching context. Writes performed
// while the batcher is active update the value immediately but defer
// notification until the batch completes.
func WithBatcher[T any](b *Batcher) ObservableOption[T] {
	return func(o *Observable[T]) {
		o.batcher = b
	}
}

// New creates an Observable holding initial.
func New[T any](initial T, opts ...ObservableOption[T]) *Observable[T] {
	o := &Observable[T]{
		events: NewNotifier(),
		value:  initial,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Get returns the current value with no side effects.
func (o *Observable[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Set assigns a new value. If the value is equal to the current one, nothing
// happens. Otherwise the value is stored and subscribers are notified, either
// immediately or at batch completion when the bound batcher is active.
//
// Notification runs synchronously in the caller's goroutine: the full chain
// of subscribers (computed recomputation included) completes before Set
// returns, so readers never observe a half-updated derived value.
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	changed := !o.equals(o.value, v)
	if changed {
		o.value = v
	}
	o.mu.Unlock()

	if !changed {
		return
	}
	o.notify()
}

// Update atomically applies fn to the current value and assigns the result
// through the normal Set path.
func (o *Observable[T]) Update(fn func(T) T) {
	o.mu.Lock()
	next := fn(o.value)
	changed := !o.equals(o.value, next)
	if changed {
		o.value = next
	}
	o.mu.Unlock()

	if !changed {
		return
	}
	o.notify()
}

// Subscribe registers fn to receive the new value on every change and
// returns a detach function. Calling the detach function more than once is
// a no-op.
func (o *Observable[T]) Subscribe(fn func(T)) func() {
	l := o.events.On(changeKey, func(args ...any) {
		fn(args[0].(T))
	})
	return o.detachFunc(l)
}

// SubscribeOnce registers fn for a single change notification; the
// registration removes itself after the first invocation. The returned
// detach function cancels the registration early and is idempotent.
func (o *Observable[T]) SubscribeOnce(fn func(T)) func() {
	l := o.events.Once(changeKey, func(args ...any) {
		fn(args[0].(T))
	})
	return o.detachFunc(l)
}

// Subscribers returns the number of attached change listeners.
func (o *Observable[T]) Subscribers() int {
	return o.events.ListenerCount(changeKey)
}

// subscribeChange implements Dependency.
func (o *Observable[T]) subscribeChange(fn func()) func() {
	l := o.events.On(changeKey, func(...any) {
		fn()
	})
	return o.detachFunc(l)
}

func (o *Observable[T]) detachFunc(l *Listener) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			o.events.Off(changeKey, l)
		})
	}
}

// notify either defers through the bound batcher or emits immediately with
// the current value.
func (o *Observable[T]) notify() {
	if o.batcher != nil && o.batcher.enqueue(o) {
		return
	}
	o.events.Emit(changeKey, o.Get())
}

// flush emits a single change notification carrying the current value.
// Called by the batcher at batch completion.
func (o *Observable[T]) flush() {
	o.events.Emit(changeKey, o.Get())
}

func (o *Observable[T]) equals(a, b T) bool {
	if o.equal != nil {
		return o.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals provides type-appropriate equality: == for common comparable
// types, reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
