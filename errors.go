package pulse

import "errors"

var (
	// ErrInvalidDependency indicates a nil dependency was passed to an
	// effect binding.
	ErrInvalidDependency = errors.New("dependency is not an observable")

	// ErrTaskAborted is the error carried by a task's error event when the
	// task is aborted without the safe flag.
	ErrTaskAborted = errors.New("task aborted")

	// ErrTaskAlreadyRun indicates Run was invoked on a task that already
	// left the idle state.
	ErrTaskAlreadyRun = errors.New("task already run")

	// ErrObservableNil indicates a nil observable was passed where a bound
	// observable is required.
	ErrObservableNil = errors.New("observable is nil")
)
