package pattern

import "sync"

// Listener receives a snapshot of the whole catalog after every change.
type Listener func(patterns []Pattern)

type listenerEntry struct {
	name string
	fn   Listener
}

// notifier fans change snapshots out to named listeners. Registering an
// existing name replaces its listener in place.
type notifier struct {
	mu        sync.Mutex
	listeners []listenerEntry
	logger    Logger
}

func (n *notifier) add(name string, fn Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.listeners {
		if n.listeners[i].name == name {
			n.listeners[i].fn = fn
			return
		}
	}
	n.listeners = append(n.listeners, listenerEntry{name: name, fn: fn})
}

func (n *notifier) remove(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.listeners {
		if n.listeners[i].name == name {
			n.listeners = append(n.listeners[:i], n.listeners[i+1:]...)
			return
		}
	}
}

// deliver calls every listener registered at the time of the call. A
// listener may add or remove listeners, including itself.
func (n *notifier) deliver(snapshot []Pattern) {
	n.mu.Lock()
	listeners := append([]listenerEntry(nil), n.listeners...)
	n.mu.Unlock()

	for _, l := range listeners {
		n.call(l, snapshot)
	}
}

func (n *notifier) call(l listenerEntry, snapshot []Pattern) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("change listener panicked", "listener", l.name, "panic", r)
		}
	}()
	l.fn(snapshot)
}
