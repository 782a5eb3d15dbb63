package pulse

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// TaskOption configures the processing pipeline wrapped around a task's
// work function. Options apply reliability middleware at the run boundary;
// instance configuration (clock, metrics) is handled via chainable methods
// on the Task before calling Run.
type TaskOption[R any] func(pipz.Chainable[*invocation[R]]) pipz.Chainable[*invocation[R]]

// buildTaskPipeline wraps the work terminal with pipeline options.
func buildTaskPipeline[R any](terminal pipz.Chainable[*invocation[R]], opts []TaskOption[R]) pipz.Chainable[*invocation[R]] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// WithRetry wraps the work function with retry logic.
// Failed runs are retried immediately up to maxAttempts times. Retries stop
// as soon as the run context is cancelled, so an aborted task does not keep
// retrying. For delays between attempts use WithBackoff instead.
func WithRetry[R any](maxAttempts int) TaskOption[R] {
	return func(p pipz.Chainable[*invocation[R]]) pipz.Chainable[*invocation[R]] {
		return pipz.NewRetry("retry", p, maxAttempts)
	}
}

// WithBackoff wraps the work function with exponential backoff retry logic.
// Failed runs are retried with increasing delays: baseDelay, 2*baseDelay,
// 4*baseDelay, and so on.
func WithBackoff[R any](maxAttempts int, baseDelay time.Duration) TaskOption[R] {
	return func(p pipz.Chainable[*invocation[R]]) pipz.Chainable[*invocation[R]] {
		return pipz.NewBackoff("backoff", p, maxAttempts, baseDelay)
	}
}

// WithTimeout bounds a run's duration. A work function that exceeds the
// deadline observes its context cancelled and the run fails with a timeout
// error.
func WithTimeout[R any](d time.Duration) TaskOption[R] {
	return func(p pipz.Chainable[*invocation[R]]) pipz.Chainable[*invocation[R]] {
		return pipz.NewTimeout("timeout", p, d)
	}
}

// WithCircuitBreaker wraps the work function with circuit breaker
// protection. After failures consecutive failures the circuit opens and
// rejects further runs until recovery time has passed. Mostly useful when a
// factory stamps out many tasks sharing one pipeline.
func WithCircuitBreaker[R any](failures int, recovery time.Duration) TaskOption[R] {
	return func(p pipz.Chainable[*invocation[R]]) pipz.Chainable[*invocation[R]] {
		return pipz.NewCircuitBreaker("circuit-breaker", p, failures, recovery)
	}
}

// WithFallback runs fallback when the primary work function fails. The
// fallback receives the same run context, task handle, and arguments, and
// its result settles the task as if it were the primary.
func WithFallback[R any](fallback Work[R]) TaskOption[R] {
	return func(p pipz.Chainable[*invocation[R]]) pipz.Chainable[*invocation[R]] {
		secondary := pipz.Apply(pipz.Name("fallback"), func(ctx context.Context, inv *invocation[R]) (*invocation[R], error) {
			result, err := fallback(ctx, inv.task, inv.args...)
			if err != nil {
				return inv, err
			}
			inv.result = result
			return inv, nil
		})
		return pipz.NewFallback("fallback", p, secondary)
	}
}

// WithRateLimit throttles runs to rps per second with the given burst.
// Runs beyond the limit wait for capacity; they still honor the run
// context, so an abort releases a waiting run.
func WithRateLimit[R any](rps float64, burst int) TaskOption[R] {
	return func(p pipz.Chainable[*invocation[R]]) pipz.Chainable[*invocation[R]] {
		limiter := pipz.NewRateLimiter[*invocation[R]]("rate-limit", rps, burst)
		return pipz.NewSequence("rate-limited", limiter, p)
	}
}
