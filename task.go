package pulse

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// Event keys used on a task's notifier.
const (
	// EventStart fires when the task transitions to running.
	// Listener args: (*Task[R]).
	EventStart = "start"

	// EventData fires when the work body publishes an intermediate value.
	// Listener args: (*Task[R], value any).
	EventData = "data"

	// EventDone fires when the work function settles successfully.
	// Listener args: (*Task[R], result R).
	EventDone = "done"

	// EventError fires when the work function fails or the task is
	// aborted without the safe flag. Listener args: (*Task[R], error).
	EventError = "error"
)

// Work is a task's work function. It receives the run arguments plus the
// task itself, so the body can read the cancellation token and emit data
// events mid-flight. The supplied context is cancelled when either the
// caller's context or the task's token fires; the body must observe it to
// terminate cooperatively.
type Work[R any] func(ctx context.Context, t *Task[R], args ...any) (R, error)

// invocation carries one run's arguments and result through the pipeline.
type invocation[R any] struct {
	task   *Task[R]
	args   []any
	result R
}

// Task is a cancellable, single-shot asynchronous unit of work with
// start/data/done/error lifecycle events.
//
// States: idle → running → {done | errored | aborted}. No transition leaves
// a terminal state, and Run on a task that already left idle returns
// ErrTaskAlreadyRun.
//
// Cancellation is cooperative: Abort fires the token and returns
// immediately; a work function that ignores its context runs to completion
// in the background.
type Task[R any] struct {
	name     string
	events   *Notifier
	work     Work[R]
	pipeline pipz.Chainable[*invocation[R]]
	clock    clockz.Clock
	metrics  MetricsProvider

	state     atomic.Int32
	executed  atomic.Bool
	hasError  atomic.Bool
	result    atomic.Pointer[R]
	lastError atomic.Pointer[error]

	token       context.Context
	cancelToken context.CancelFunc
}

// NewTask builds an idle task around work. The name identifies the task in
// signals and error messages. Pipeline options wrap the work invocation
// with retry, backoff, timeout, or circuit-breaker middleware.
func NewTask[R any](name string, work Work[R], opts ...TaskOption[R]) *Task[R] {
	t := &Task[R]{
		name:   name,
		events: NewNotifier(),
		work:   work,
		clock:  clockz.RealClock,
	}
	t.token, t.cancelToken = context.WithCancel(context.Background())

	terminal := pipz.Apply(pipz.Name("work"), func(ctx context.Context, inv *invocation[R]) (*invocation[R], error) {
		result, err := t.work(ctx, inv.task, inv.args...)
		if err != nil {
			return inv, err
		}
		inv.result = result
		return inv, nil
	})
	t.pipeline = buildTaskPipeline(terminal, opts)

	return t
}

// Clock sets a custom clock used for run duration measurement.
// Must be called before Run.
func (t *Task[R]) Clock(clock clockz.Clock) *Task[R] {
	t.clock = clock
	return t
}

// Metrics sets a metrics provider receiving state transitions and
// settlement callbacks. Must be called before Run.
func (t *Task[R]) Metrics(provider MetricsProvider) *Task[R] {
	t.metrics = provider
	return t
}

// Name returns the task's name.
func (t *Task[R]) Name() string {
	return t.name
}

// State returns the current lifecycle state.
func (t *Task[R]) State() TaskState {
	return TaskState(t.state.Load())
}

// Executed reports whether the task has run, failed, or been aborted.
func (t *Task[R]) Executed() bool {
	return t.executed.Load()
}

// HasError reports whether the task failed or was aborted without the safe
// flag.
func (t *Task[R]) HasError() bool {
	return t.hasError.Load()
}

// Result returns the stored result and true once the task settled
// successfully.
func (t *Task[R]) Result() (R, bool) {
	ptr := t.result.Load()
	if ptr == nil {
		var zero R
		return zero, false
	}
	return *ptr, true
}

// LastError returns the error the task settled with, or nil.
func (t *Task[R]) LastError() error {
	ptr := t.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// Context exposes the task's cancellation token. The work body passes it
// (or the run context derived from it) into any cancellable sub-operation.
// The token's Done channel is the listener surface; Err is the flag.
func (t *Task[R]) Context() context.Context {
	return t.token
}

// On registers a listener for one of the task event keys and returns a
// removal handle.
func (t *Task[R]) On(key string, fn ListenerFunc) *Listener {
	return t.events.On(key, fn)
}

// Once registers a self-removing listener for one of the task event keys.
func (t *Task[R]) Once(key string, fn ListenerFunc) *Listener {
	return t.events.Once(key, fn)
}

// Off removes a listener by handle.
func (t *Task[R]) Off(key string, l *Listener) {
	t.events.Off(key, l)
}

// OnData registers a listener receiving mid-flight data payloads.
func (t *Task[R]) OnData(fn func(v any)) *Listener {
	return t.events.On(EventData, func(args ...any) {
		fn(args[1])
	})
}

// OnDone registers a listener receiving the task's result.
func (t *Task[R]) OnDone(fn func(result R)) *Listener {
	return t.events.On(EventDone, func(args ...any) {
		fn(args[1].(R))
	})
}

// OnError registers a listener receiving failure and abort errors.
func (t *Task[R]) OnError(fn func(err error)) *Listener {
	return t.events.On(EventError, func(args ...any) {
		fn(args[1].(error))
	})
}

// EmitData publishes an intermediate value from the work body. Listeners
// registered for EventData receive (task, v).
func (t *Task[R]) EmitData(v any) {
	t.events.Emit(EventData, t, v)
	capitan.Emit(context.Background(), TaskData,
		KeyTaskName.Field(t.name),
	)
}

// Run executes the work function with args. It transitions the task to
// running, emits the start event, and blocks until the work settles or
// abandons to cancellation. Callers wanting asynchrony run it in a
// goroutine; events deliver either way.
//
// On success the result is stored, the done event fires, and the result is
// returned. On failure the error event fires and the error is returned.
// Failures are never silent: the error event precedes the error return, so
// observers are notified even when the caller discards Run's error.
func (t *Task[R]) Run(ctx context.Context, args ...any) (R, error) {
	var zero R

	if !t.state.CompareAndSwap(int32(TaskIdle), int32(TaskRunning)) {
		return zero, fmt.Errorf("task %q: %w", t.name, ErrTaskAlreadyRun)
	}
	t.announce(ctx, TaskIdle, TaskRunning)
	start := t.clock.Now()

	capitan.Emit(ctx, TaskStarted,
		KeyTaskName.Field(t.name),
	)
	t.events.Emit(EventStart, t)

	// Bridge the caller's context and the task's own token into the run
	// context the work body observes.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(t.token, cancel)
	defer stop()

	out, err := t.pipeline.Process(runCtx, &invocation[R]{task: t, args: args})
	duration := t.clock.Now().Sub(start)
	t.executed.Store(true)

	if err != nil {
		if !t.state.CompareAndSwap(int32(TaskRunning), int32(TaskErrored)) {
			// Abort already moved the state and emitted its error event
			// (unless the abort was safe).
			t.settle(TaskAborted, duration)
			return zero, fmt.Errorf("task %q: %w", t.name, ErrTaskAborted)
		}

		e := err
		t.hasError.Store(true)
		t.lastError.Store(&e)
		t.announce(ctx, TaskRunning, TaskErrored)

		t.events.Emit(EventError, t, err)
		capitan.Emit(ctx, TaskFailed,
			KeyTaskName.Field(t.name),
			KeyError.Field(err.Error()),
		)
		t.settle(TaskErrored, duration)
		return zero, fmt.Errorf("task %q failed: %w", t.name, err)
	}

	if !t.state.CompareAndSwap(int32(TaskRunning), int32(TaskDone)) {
		// Aborted while the work was settling; the abort owns the outcome.
		t.settle(TaskAborted, duration)
		return zero, fmt.Errorf("task %q: %w", t.name, ErrTaskAborted)
	}

	t.result.Store(&out.result)
	t.announce(ctx, TaskRunning, TaskDone)

	t.events.Emit(EventDone, t, out.result)
	capitan.Emit(ctx, TaskCompleted,
		KeyTaskName.Field(t.name),
		KeyDuration.Field(duration),
	)
	t.settle(TaskDone, duration)
	return out.result, nil
}

// Abort requests cancellation and reports it as a failure: the error event
// fires with ErrTaskAborted and HasError becomes true. The work body is
// responsible for observing the token; Abort returns immediately either way.
func (t *Task[R]) Abort() {
	t.abort(false)
}

// AbortSafe requests cancellation without raising an error event. Executed
// becomes true; HasError stays false.
func (t *Task[R]) AbortSafe() {
	t.abort(true)
}

func (t *Task[R]) abort(safe bool) {
	t.executed.Store(true)

	// Move to aborted unless a terminal state was already reached.
	var from TaskState
	for {
		s := t.state.Load()
		if TaskState(s).Terminal() {
			return
		}
		if t.state.CompareAndSwap(s, int32(TaskAborted)) {
			from = TaskState(s)
			break
		}
	}

	t.cancelToken()
	t.announce(context.Background(), from, TaskAborted)
	capitan.Emit(context.Background(), TaskAbortRequested,
		KeyTaskName.Field(t.name),
	)

	if !safe {
		e := error(ErrTaskAborted)
		t.hasError.Store(true)
		t.lastError.Store(&e)
		t.events.Emit(EventError, t, ErrTaskAborted)
	}
}

// announce reports a state transition to capitan and the metrics provider.
func (t *Task[R]) announce(ctx context.Context, from, to TaskState) {
	capitan.Emit(ctx, TaskStateChanged,
		KeyTaskName.Field(t.name),
		KeyOldState.Field(from.String()),
		KeyNewState.Field(to.String()),
	)
	if t.metrics != nil {
		t.metrics.OnTaskStateChange(from, to)
	}
}

func (t *Task[R]) settle(state TaskState, duration time.Duration) {
	if t.metrics != nil {
		t.metrics.OnTaskSettled(state, duration)
	}
}
