package pulse

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus,
// StatsD, etc. Implement this interface to receive callbacks on key
// propagation and task events.
type MetricsProvider interface {
	// OnBatchFlush is called when the outermost batch completes.
	// Pending is the number of observables that were notified.
	OnBatchFlush(pending int)

	// OnTaskStateChange is called when a task transitions between states.
	OnTaskStateChange(from, to TaskState)

	// OnTaskSettled is called when a task run finishes, successfully or
	// not. Duration is the time between start and settlement.
	OnTaskSettled(state TaskState, duration time.Duration)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Embed it to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnBatchFlush(_ int)                           {}
func (NoOpMetricsProvider) OnTaskStateChange(_, _ TaskState)             {}
func (NoOpMetricsProvider) OnTaskSettled(_ TaskState, _ time.Duration)   {}
