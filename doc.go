/*
Package pulse provides in-process reactive state and task coordination:
observable values with change notification, derived computations, coalesced
batch updates, side-effect bindings, and cancellable single-shot tasks with
lifecycle events.

# Observables

An Observable is a single mutable value slot. Writes that assign an equal
value are no-ops; writes that change the value notify subscribers
synchronously, in subscription order:

	port := pulse.New(8080)
	detach := port.Subscribe(func(p int) {
	    fmt.Println("port is now", p)
	})
	port.Set(9090)
	detach()

The notification chain runs to completion before Set returns. Derived
values recompute before later subscribers observe the change, so readers
never see a half-updated view.

# Computed values

A Computed derives its contents from one or more sources through a pure
transform, recomputed eagerly on every source change:

	host := pulse.New("localhost")
	addr := pulse.NewComputed(func() string {
	    return fmt.Sprintf("%s:%d", host.Get(), port.Get())
	}, []pulse.Dependency{host, port})
	defer addr.UnsubscribeSources()

# Batching

A Batcher coalesces writes: inside Run, values update immediately but
notification defers until the outermost batch completes, once per
observable regardless of write count:

	b := pulse.NewBatcher()
	x := pulse.New(0, pulse.WithBatcher[int](b))
	b.Run(func() error {
	    x.Set(1)
	    x.Set(2)
	    return nil
	})
	// subscribers saw one notification, carrying 2

# Effects

Effect binds a side-effecting callback to any number of observables and
returns one combined detach function. Callback errors are recorded and
emitted as signals, never propagated into the notification chain.

# Tasks

A Task wraps a single cancellable unit of work with start/data/done/error
events and a cooperative cancellation token:

	task := pulse.NewTask("fetch", func(ctx context.Context, t *pulse.Task[string], args ...any) (string, error) {
	    t.EmitData(args[0])
	    if err := pulse.Sleep(ctx, nil, 3*time.Second); err != nil {
	        return "", err
	    }
	    return "done", nil
	})
	go task.Run(context.Background(), "x")
	task.Abort() // error event fires with pulse.ErrTaskAborted

Pipeline options wrap the work function with reliability middleware:

	pulse.NewTask("sync", work,
	    pulse.WithRetry[Result](3),
	    pulse.WithTimeout[Result](5*time.Second),
	)

# Feeds

External sources drive observables through the Watcher interface: a
FileWatcher mirrors a file into an Observable[[]byte], and Decoded derives
a typed, validated observable from the raw bytes, keeping the previous
valid value when a change fails to decode or validate.

# Observability

Every lifecycle edge emits a capitan signal with typed fields. Hook the
signals for logging or metrics:

	capitan.Hook(pulse.TaskFailed, func(_ context.Context, e *capitan.Event) {
	    name, _ := pulse.KeyTaskName.From(e)
	    msg, _ := pulse.KeyError.From(e)
	    log.Printf("task %s failed: %s", name, msg)
	})
*/
package pulse
