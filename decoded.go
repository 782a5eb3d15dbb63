package pulse

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/zoobzio/capitan"
)

// validate is the shared validator instance for struct-tag validation.
var validate = validator.New()

// Validator can be implemented by decoded types to add validation logic
// beyond struct tags.
type Validator interface {
	Validate() error
}

// Decoded derives a typed observable from a raw byte observable. Every raw
// change is unmarshaled with the configured codec, validated (struct tags
// via go-playground/validator, plus the Validator interface when
// implemented), and on success written through the typed observable's
// ordinary Set path. A raw value that fails to decode or validate is
// dropped: the previous valid value stays applied, the feed moves to a
// degraded state, and the error is recorded.
//
// Decoding runs synchronously inside the raw observable's notification
// chain, so subscribers of the typed observable never observe a value that
// has not passed validation.
type Decoded[T any] struct {
	out     *Observable[T]
	codec   Codec
	history *errorRing

	state     atomic.Int32
	applied   atomic.Bool
	lastError atomic.Pointer[error]

	detach func()
}

// DecodedOption configures a Decoded feed.
type DecodedOption[T any] func(*Decoded[T])

// WithCodec sets the codec for deserializing raw data. Default: AutoCodec.
func WithCodec[T any](c Codec) DecodedOption[T] {
	return func(d *Decoded[T]) {
		d.codec = c
	}
}

// WithDecodeErrorHistory sets how many recent decode and validation errors
// the feed retains. Default: only the most recent via LastError.
func WithDecodeErrorHistory[T any](n int) DecodedOption[T] {
	return func(d *Decoded[T]) {
		d.history = newErrorRing(n)
	}
}

// NewDecoded builds a typed feed over src. If src already holds a non-nil
// raw value it is processed eagerly; otherwise the feed stays in the
// loading state until the first raw change arrives. obsOpts configure the
// inner typed observable (equality, batching).
func NewDecoded[T any](src *Observable[[]byte], opts []DecodedOption[T], obsOpts ...ObservableOption[T]) *Decoded[T] {
	var zero T
	d := &Decoded[T]{
		out:   New(zero, obsOpts...),
		codec: AutoCodec{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.state.Store(int32(FeedLoading))

	if raw := src.Get(); raw != nil {
		d.process(raw)
	}
	d.detach = src.Subscribe(func(raw []byte) {
		d.process(raw)
	})

	return d
}

// Value returns the typed observable the feed writes through. Subscribe to
// it, derive computed values from it, or bind effects like any other
// observable.
func (d *Decoded[T]) Value() *Observable[T] {
	return d.out
}

// State returns the feed's current state.
func (d *Decoded[T]) State() FeedState {
	return FeedState(d.state.Load())
}

// LastError returns the last decode or validation error, or nil.
func (d *Decoded[T]) LastError() error {
	ptr := d.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns retained errors, oldest first, when enabled.
func (d *Decoded[T]) ErrorHistory() []error {
	return d.history.all()
}

// Detach stops listening to the raw observable. The typed observable keeps
// its last value but never updates again. Idempotent.
func (d *Decoded[T]) Detach() {
	d.detach()
}

func (d *Decoded[T]) process(raw []byte) {
	ctx := context.Background()
	oldState := d.State()

	var result T
	if err := d.codec.Unmarshal(raw, &result); err != nil {
		err = fmt.Errorf("decode failed: %w", err)
		d.fail(ctx, oldState, err)
		capitan.Emit(ctx, FeedDecodeFailed,
			KeyContentType.Field(d.codec.ContentType()),
			KeyError.Field(err.Error()),
		)
		return
	}

	if err := validateValue(result); err != nil {
		err = fmt.Errorf("validation failed: %w", err)
		d.fail(ctx, oldState, err)
		capitan.Emit(ctx, FeedValidationFailed,
			KeyError.Field(err.Error()),
		)
		return
	}

	d.out.Set(result)
	d.applied.Store(true)
	d.lastError.Store(nil)
	d.transition(ctx, oldState, FeedHealthy)
	capitan.Emit(ctx, FeedApplied,
		KeyContentType.Field(d.codec.ContentType()),
	)
}

func (d *Decoded[T]) fail(ctx context.Context, oldState FeedState, err error) {
	e := err
	d.lastError.Store(&e)
	d.history.push(err)

	next := FeedDegraded
	if !d.applied.Load() {
		next = FeedEmpty
	}
	d.transition(ctx, oldState, next)
}

func (d *Decoded[T]) transition(ctx context.Context, from, to FeedState) {
	if from == to {
		return
	}
	d.state.Store(int32(to))
	capitan.Emit(ctx, FeedStateChanged,
		KeyOldState.Field(from.String()),
		KeyNewState.Field(to.String()),
	)
}

// validateValue runs the Validator interface when implemented, then
// struct-tag validation for struct kinds.
func validateValue(v any) error {
	if vv, ok := v.(Validator); ok {
		if err := vv.Validate(); err != nil {
			return err
		}
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		return validate.Struct(v)
	}
	return nil
}
