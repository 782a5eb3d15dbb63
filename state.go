package pulse

// TaskState represents the lifecycle state of a Task.
type TaskState int32

const (
	// TaskIdle indicates the task has been created but not run.
	TaskIdle TaskState = iota

	// TaskRunning indicates the work function is executing.
	TaskRunning

	// TaskDone indicates the work function settled successfully.
	TaskDone

	// TaskErrored indicates the work function settled with an error.
	TaskErrored

	// TaskAborted indicates the task was cancelled before settling.
	// HasError distinguishes a plain abort from a safe abort.
	TaskAborted
)

// String returns the string representation of the state.
func (s TaskState) String() string {
	switch s {
	case TaskIdle:
		return "idle"
	case TaskRunning:
		return "running"
	case TaskDone:
		return "done"
	case TaskErrored:
		return "errored"
	case TaskAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave the state.
func (s TaskState) Terminal() bool {
	return s == TaskDone || s == TaskErrored || s == TaskAborted
}

// FeedState represents the current state of a Decoded observable.
type FeedState int32

const (
	// FeedLoading indicates no raw value has been processed yet.
	FeedLoading FeedState = iota

	// FeedHealthy indicates the last raw value decoded and validated.
	FeedHealthy

	// FeedDegraded indicates the last raw value failed but a previous
	// valid value remains applied.
	FeedDegraded

	// FeedEmpty indicates no raw value has ever decoded successfully.
	FeedEmpty
)

// String returns the string representation of the state.
func (s FeedState) String() string {
	switch s {
	case FeedLoading:
		return "loading"
	case FeedHealthy:
		return "healthy"
	case FeedDegraded:
		return "degraded"
	case FeedEmpty:
		return "empty"
	default:
		return "unknown"
	}
}
