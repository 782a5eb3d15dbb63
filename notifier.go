package pulse

import "sync"

// ListenerFunc is a callback invoked when an event fires. Arguments are
// whatever the emitter passed to Emit, in the same order.
type ListenerFunc func(args ...any)

// Listener is a registration handle returned by On and Once.
// Pass it to Off to remove the registration.
type Listener struct {
	key  string
	fn   ListenerFunc
	once bool
}

// Notifier is a keyed multi-listener broadcaster. Listeners registered for
// a key fire in registration order. Emission iterates a snapshot of the
// listener list, so removing a listener during its own invocation (including
// the self-removal performed by Once) never skips or double-invokes a
// listener already scheduled for that round.
//
// Listener panics are not recovered: a panicking listener aborts the
// remaining listeners for that emission round and propagates to the caller
// of Emit. Callers that need isolation must wrap their listener bodies.
type Notifier struct {
	mu        sync.Mutex
	listeners map[string][]*Listener
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		listeners: make(map[string][]*Listener),
	}
}

// On registers fn for key and returns a handle usable with Off.
func (n *Notifier) On(key string, fn ListenerFunc) *Listener {
	l := &Listener{key: key, fn: fn}
	n.add(l)
	return l
}

// Once registers fn for key and removes the registration after its first
// invocation.
func (n *Notifier) Once(key string, fn ListenerFunc) *Listener {
	l := &Listener{key: key, fn: fn, once: true}
	n.add(l)
	return l
}

// Off removes a listener by handle identity. Removing an unknown or
// already-removed handle is a no-op. The key's listener list is deleted
// entirely once it empties.
func (n *Notifier) Off(key string, l *Listener) {
	if l == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	list, ok := n.listeners[key]
	if !ok {
		return
	}

	for i, existing := range list {
		if existing == l {
			n.listeners[key] = append(list[:i:i], list[i+1:]...)
			break
		}
	}

	if len(n.listeners[key]) == 0 {
		delete(n.listeners, key)
	}
}

// Emit invokes every listener currently registered for key, in registration
// order, passing the same arguments to each. It returns whether any listener
// was registered at the time of the call.
func (n *Notifier) Emit(key string, args ...any) bool {
	n.mu.Lock()
	list, ok := n.listeners[key]
	if !ok || len(list) == 0 {
		n.mu.Unlock()
		return false
	}

	// Snapshot before dispatch so mutation during the round is safe.
	snapshot := make([]*Listener, len(list))
	copy(snapshot, list)
	n.mu.Unlock()

	for _, l := range snapshot {
		if l.once {
			n.Off(key, l)
		}
		l.fn(args...)
	}

	return true
}

// ListenerCount returns the number of listeners registered for key.
func (n *Notifier) ListenerCount(key string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners[key])
}

func (n *Notifier) add(l *Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners[l.key] = append(n.listeners[l.key], l)
}
