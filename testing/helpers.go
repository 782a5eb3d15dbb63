// Package testing provides test utilities and helpers for pulse-based tests.
package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/pulsekit/pulse"
)

// TestConfig is a standard configuration type for testing decoded feeds.
// It implements pulse.Validator with configurable validation behavior.
type TestConfig struct {
	Port    int    `yaml:"port" json:"port"`
	Host    string `yaml:"host" json:"host"`
	Timeout int    `yaml:"timeout" json:"timeout"`
}

// Validate implements pulse.Validator.
func (c TestConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if c.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForFeedState waits until the feed reaches the expected state or timeout occurs.
func WaitForFeedState[T any](t *testing.T, d *pulse.Decoded[T], expected pulse.FeedState, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return d.State() == expected
	})
}

// WaitForTaskState waits until the task reaches the expected state or timeout occurs.
func WaitForTaskState[R any](t *testing.T, task *pulse.Task[R], expected pulse.TaskState, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return task.State() == expected
	})
}

// RequireFeedState fails the test immediately if the feed is not in the expected state.
func RequireFeedState[T any](t *testing.T, d *pulse.Decoded[T], expected pulse.FeedState) {
	t.Helper()
	if got := d.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// RequireTaskState fails the test immediately if the task is not in the expected state.
func RequireTaskState[R any](t *testing.T, task *pulse.Task[R], expected pulse.TaskState) {
	t.Helper()
	if got := task.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// CollectValues subscribes to an observable and returns a function that
// snapshots the values seen so far. Useful for asserting notification
// sequences without hand-rolling the accumulator in every test.
func CollectValues[T any](obs *pulse.Observable[T]) (snapshot func() []T, detach func()) {
	var values []T
	detach = obs.Subscribe(func(v T) {
		values = append(values, v)
	})
	snapshot = func() []T {
		out := make([]T, len(values))
		copy(out, values)
		return out
	}
	return snapshot, detach
}
