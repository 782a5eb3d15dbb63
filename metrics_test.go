package pulse

import (
	"testing"
	"time"
)

func TestNoOpMetricsProvider_DoesNotPanic(_ *testing.T) {
	var m NoOpMetricsProvider

	// These should not panic
	m.OnBatchFlush(3)
	m.OnTaskStateChange(TaskIdle, TaskRunning)
	m.OnTaskSettled(TaskDone, 100*time.Millisecond)
}

type batchMetricsRecorder struct {
	NoOpMetricsProvider
	flushes []int
}

func (r *batchMetricsRecorder) OnBatchFlush(pending int) {
	r.flushes = append(r.flushes, pending)
}

func TestBatcher_MetricsOnFlush(t *testing.T) {
	recorder := &batchMetricsRecorder{}
	b := NewBatcher(WithBatchMetrics(recorder))

	x := New(1, WithBatcher[int](b))
	y := New(2, WithBatcher[int](b))

	b.Run(func() error {
		x.Set(10)
		y.Set(20)
		return nil
	})

	if len(recorder.flushes) != 1 {
		t.Fatalf("expected 1 flush callback, got %d", len(recorder.flushes))
	}
	if recorder.flushes[0] != 2 {
		t.Errorf("expected 2 pending observables, got %d", recorder.flushes[0])
	}
}
