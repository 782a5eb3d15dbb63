package pulse

import "github.com/zoobzio/capitan"

// Field keys for pulse events.
var (
	// KeyState is the current state of a task or feed.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyPendingCount is the number of observables flushed by a batch.
	KeyPendingCount = capitan.NewIntKey("pending_count")

	// KeyTaskName is the name of the task emitting the event.
	KeyTaskName = capitan.NewStringKey("task_name")

	// KeyDuration is the elapsed time of a completed task run.
	KeyDuration = capitan.NewDurationKey("duration")

	// KeyContentType is the codec content type used by a decoded feed.
	KeyContentType = capitan.NewStringKey("content_type")
)
