package pulse

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestTask_SuccessPath(t *testing.T) {
	task := NewTask("double", func(_ context.Context, _ *Task[int], args ...any) (int, error) {
		return args[0].(int) * 2, nil
	})

	var order []string
	task.On(EventStart, func(...any) { order = append(order, "start") })
	task.OnDone(func(int) { order = append(order, "done") })

	got, err := task.Run(context.Background(), 21)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	if len(order) != 2 || order[0] != "start" || order[1] != "done" {
		t.Errorf("expected [start done], got %v", order)
	}
	if task.State() != TaskDone {
		t.Errorf("expected done state, got %s", task.State())
	}
	if !task.Executed() {
		t.Error("expected Executed true")
	}
	if task.HasError() {
		t.Error("expected HasError false")
	}
	if result, ok := task.Result(); !ok || result != 42 {
		t.Errorf("expected stored result 42, got %d (ok=%v)", result, ok)
	}
}

func TestTask_FailurePath(t *testing.T) {
	boom := errors.New("boom")
	task := NewTask("failing", func(context.Context, *Task[string], ...any) (string, error) {
		return "", boom
	})

	var eventErr error
	task.OnError(func(err error) { eventErr = err })

	_, err := task.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected work error returned, got %v", err)
	}

	// The error event fired before Run returned; failures are never silent.
	if !errors.Is(eventErr, boom) {
		t.Errorf("expected error event carrying work error, got %v", eventErr)
	}
	if task.State() != TaskErrored {
		t.Errorf("expected errored state, got %s", task.State())
	}
	if !task.Executed() || !task.HasError() {
		t.Error("expected Executed and HasError true")
	}
	if !errors.Is(task.LastError(), boom) {
		t.Errorf("expected LastError to hold work error, got %v", task.LastError())
	}
}

func TestTask_RunTwiceRejected(t *testing.T) {
	task := NewTask("once", func(context.Context, *Task[int], ...any) (int, error) {
		return 1, nil
	})

	if _, err := task.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	_, err := task.Run(context.Background())
	if !errors.Is(err, ErrTaskAlreadyRun) {
		t.Errorf("expected ErrTaskAlreadyRun, got %v", err)
	}
	if task.State() != TaskDone {
		t.Errorf("expected state unchanged by rejected Run, got %s", task.State())
	}
}

func TestTask_AbortScenario(t *testing.T) {
	// Work writes its argument to an observable, emits one data event,
	// then waits 3 seconds unless aborted.
	clock := clockz.NewFakeClock()
	slot := New("")

	task := NewTask("waiter", func(ctx context.Context, tk *Task[string], args ...any) (string, error) {
		v := args[0].(string)
		slot.Set(v)
		tk.EmitData(v)
		if err := Sleep(ctx, clock, 3*time.Second); err != nil {
			return "", err
		}
		return v, nil
	})

	var dataCount atomic.Int32
	var dataPayload atomic.Value
	task.OnData(func(v any) {
		dataCount.Add(1)
		dataPayload.Store(v)
	})

	var errCount atomic.Int32
	task.OnError(func(error) { errCount.Add(1) })

	done := make(chan error, 1)
	go func() {
		_, err := task.Run(context.Background(), "x")
		done <- err
	}()

	// One second in: exactly one data event with payload "x", still waiting.
	clock.Advance(1 * time.Second)
	clock.BlockUntilReady()
	time.Sleep(10 * time.Millisecond)

	if dataCount.Load() != 1 {
		t.Errorf("expected exactly one data event after 1s, got %d", dataCount.Load())
	}
	if dataPayload.Load() != "x" {
		t.Errorf("expected data payload %q, got %v", "x", dataPayload.Load())
	}
	if slot.Get() != "x" {
		t.Errorf("expected observable written with %q, got %q", "x", slot.Get())
	}
	if task.State() != TaskRunning {
		t.Errorf("expected running state, got %s", task.State())
	}

	// Abort before the wait elapses: terminal error event, HasError true.
	task.Abort()

	err := <-done
	if !errors.Is(err, ErrTaskAborted) {
		t.Errorf("expected ErrTaskAborted from Run, got %v", err)
	}
	if errCount.Load() != 1 {
		t.Errorf("expected one error event, got %d", errCount.Load())
	}
	if task.State() != TaskAborted {
		t.Errorf("expected aborted state, got %s", task.State())
	}
	if !task.Executed() || !task.HasError() {
		t.Error("expected Executed and HasError true after abort")
	}
}

func TestTask_AbortSafe(t *testing.T) {
	clock := clockz.NewFakeClock()

	task := NewTask("quiet", func(ctx context.Context, _ *Task[string], _ ...any) (string, error) {
		if err := Sleep(ctx, clock, 3*time.Second); err != nil {
			return "", err
		}
		return "done", nil
	})

	var errCount atomic.Int32
	task.OnError(func(error) { errCount.Add(1) })

	done := make(chan error, 1)
	go func() {
		_, err := task.Run(context.Background())
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)

	task.AbortSafe()
	<-done

	if errCount.Load() != 0 {
		t.Errorf("expected no error event on safe abort, got %d", errCount.Load())
	}
	if !task.Executed() {
		t.Error("expected Executed true after safe abort")
	}
	if task.HasError() {
		t.Error("expected HasError false after safe abort")
	}
	if task.State() != TaskAborted {
		t.Errorf("expected aborted state, got %s", task.State())
	}
}

func TestTask_AbortAfterDoneIsNoOp(t *testing.T) {
	task := NewTask("done-first", func(context.Context, *Task[int], ...any) (int, error) {
		return 7, nil
	})

	var errCount atomic.Int32
	task.OnError(func(error) { errCount.Add(1) })

	if _, err := task.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	task.Abort()

	if task.State() != TaskDone {
		t.Errorf("no transition may leave a terminal state, got %s", task.State())
	}
	if errCount.Load() != 0 {
		t.Errorf("expected no error event aborting a done task, got %d", errCount.Load())
	}
	if task.HasError() {
		t.Error("expected HasError false")
	}
}

func TestTask_AbortIgnoringWorkRunsInBackground(t *testing.T) {
	// A work body that never checks its context keeps running; Abort
	// still returns immediately and settles the task.
	release := make(chan struct{})
	task := NewTask("stubborn", func(context.Context, *Task[int], ...any) (int, error) {
		<-release
		return 1, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := task.Run(context.Background())
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)

	task.Abort()
	if task.State() != TaskAborted {
		t.Errorf("expected aborted state immediately, got %s", task.State())
	}

	close(release)
	err := <-done
	if !errors.Is(err, ErrTaskAborted) {
		t.Errorf("expected ErrTaskAborted even though work settled, got %v", err)
	}
	if task.State() != TaskAborted {
		t.Errorf("settling work must not leave the aborted state, got %s", task.State())
	}
}

func TestTask_WorkReceivesTaskAndArgs(t *testing.T) {
	task := NewTask("introspect", func(_ context.Context, tk *Task[string], args ...any) (string, error) {
		if tk == nil {
			t.Error("expected task appended to work arguments")
		}
		if tk.Context() == nil {
			t.Error("expected cancellation token available to work body")
		}
		return args[0].(string) + args[1].(string), nil
	})

	got, err := task.Run(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != "ab" {
		t.Errorf("expected ab, got %q", got)
	}
}

func TestTask_MetricsCallbacks(t *testing.T) {
	var transitions atomic.Int32
	var settled atomic.Int32

	m := &recordingMetrics{transitions: &transitions, settled: &settled}
	task := NewTask("measured", func(context.Context, *Task[int], ...any) (int, error) {
		return 1, nil
	}).Metrics(m)

	if _, err := task.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// idle->running and running->done.
	if transitions.Load() != 2 {
		t.Errorf("expected 2 state transitions, got %d", transitions.Load())
	}
	if settled.Load() != 1 {
		t.Errorf("expected 1 settlement callback, got %d", settled.Load())
	}
}

type recordingMetrics struct {
	NoOpMetricsProvider
	transitions *atomic.Int32
	settled     *atomic.Int32
}

func (m *recordingMetrics) OnTaskStateChange(_, _ TaskState) {
	m.transitions.Add(1)
}

func (m *recordingMetrics) OnTaskSettled(_ TaskState, _ time.Duration) {
	m.settled.Add(1)
}
