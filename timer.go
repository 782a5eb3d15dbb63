package pulse

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// Sleep blocks for d or until ctx is cancelled, whichever comes first.
// It returns ctx.Err() when cancelled, nil otherwise. Pass a task's run
// context to make the sleep abort-aware; pass clockz.FakeClock in tests.
func Sleep(ctx context.Context, clock clockz.Clock, d time.Duration) error {
	if clock == nil {
		clock = clockz.RealClock
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

// Repeat invokes fn every interval until ctx is cancelled. It blocks; run
// it in a goroutine for background repetition. The first invocation happens
// after the first interval elapses.
func Repeat(ctx context.Context, clock clockz.Clock, interval time.Duration, fn func()) {
	if clock == nil {
		clock = clockz.RealClock
	}

	timer := clock.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C():
			fn()
			timer.Reset(interval)
		}
	}
}

// Debounce derives an observable that follows src after a quiet period:
// each change to src restarts the timer, and only when quiet elapses with
// no further changes is the latest value written through. Rapid write
// bursts collapse into a single downstream notification.
//
// The returned observable starts holding src's current value. The pump
// goroutine exits when ctx is cancelled, detaching from src. A nil clock
// uses the real clock.
func Debounce[T any](ctx context.Context, src *Observable[T], quiet time.Duration, clock clockz.Clock, obsOpts ...ObservableOption[T]) *Observable[T] {
	if clock == nil {
		clock = clockz.RealClock
	}

	out := New(src.Get(), obsOpts...)

	var (
		mu     sync.Mutex
		latest T
	)
	kick := make(chan struct{}, 1)

	detach := src.Subscribe(func(v T) {
		mu.Lock()
		latest = v
		mu.Unlock()

		select {
		case kick <- struct{}{}:
		default:
		}
	})

	go func() {
		defer detach()

		var timer clockz.Timer

		for {
			var timerC <-chan time.Time
			if timer != nil {
				timerC = timer.C()
			}

			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case <-kick:
				if timer == nil {
					timer = clock.NewTimer(quiet)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C():
						default:
						}
					}
					timer.Reset(quiet)
				}

			case <-timerC:
				mu.Lock()
				v := latest
				mu.Unlock()
				out.Set(v)
			}
		}
	}()

	return out
}
