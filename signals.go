package pulse

import "github.com/zoobzio/capitan"

// Task lifecycle signals.
var (
	// TaskStarted is emitted when a task transitions to running.
	TaskStarted = capitan.NewSignal(
		"pulse.task.started",
		"Task run started",
	)

	// TaskData is emitted when a work body publishes an intermediate value.
	TaskData = capitan.NewSignal(
		"pulse.task.data",
		"Task emitted data mid-flight",
	)

	// TaskCompleted is emitted when the work function settles successfully.
	TaskCompleted = capitan.NewSignal(
		"pulse.task.completed",
		"Task completed",
	)

	// TaskFailed is emitted when the work function settles with an error.
	TaskFailed = capitan.NewSignal(
		"pulse.task.failed",
		"Task work function failed",
	)

	// TaskAbortRequested is emitted when a task's cancellation token fires.
	TaskAbortRequested = capitan.NewSignal(
		"pulse.task.abort.requested",
		"Task abort requested",
	)

	// TaskStateChanged is emitted when a task transitions between states.
	TaskStateChanged = capitan.NewSignal(
		"pulse.task.state.changed",
		"Task state transition",
	)
)

// Propagation signals.
var (
	// BatchFlushed is emitted when the outermost batch completes and the
	// deferred notifications have been delivered.
	BatchFlushed = capitan.NewSignal(
		"pulse.batch.flushed",
		"Batch flushed pending notifications",
	)

	// EffectFailed is emitted when an effect callback returns an error.
	EffectFailed = capitan.NewSignal(
		"pulse.effect.failed",
		"Effect callback failed",
	)
)

// Decoded feed signals.
var (
	// FeedDecodeFailed is emitted when raw bytes fail to unmarshal.
	FeedDecodeFailed = capitan.NewSignal(
		"pulse.feed.decode.failed",
		"Raw value failed to decode",
	)

	// FeedValidationFailed is emitted when a decoded value fails validation.
	FeedValidationFailed = capitan.NewSignal(
		"pulse.feed.validation.failed",
		"Decoded value failed validation",
	)

	// FeedApplied is emitted when a decoded value is written through.
	FeedApplied = capitan.NewSignal(
		"pulse.feed.applied",
		"Decoded value applied",
	)

	// FeedStateChanged is emitted when a decoded feed transitions states.
	FeedStateChanged = capitan.NewSignal(
		"pulse.feed.state.changed",
		"Decoded feed state transition",
	)
)
