package pulse

import (
	"context"
	"fmt"
)

// Watcher observes an external source for changes and emits raw bytes on a
// channel. Implementations should emit the current value immediately upon
// Watch being called so observables bound to the source start populated.
type Watcher interface {
	// Watch begins observing the source and returns a channel that emits
	// raw bytes when changes occur. The channel is closed when the context
	// is cancelled or an unrecoverable error occurs.
	Watch(ctx context.Context) (<-chan []byte, error)
}

// BindWatcher drives obs from a watcher: every emission is written through
// the observable's ordinary Set path, so equality suppression and batching
// apply to external sources the same as to in-process writers.
//
// The pump goroutine exits when the watcher channel closes or ctx is
// cancelled. BindWatcher returns immediately after the watch starts.
func BindWatcher(ctx context.Context, w Watcher, obs *Observable[[]byte]) error {
	if obs == nil {
		return ErrObservableNil
	}

	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-changes:
				if !ok {
					return
				}
				obs.Set(raw)
			}
		}
	}()

	return nil
}
