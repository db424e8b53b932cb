// Package zwnotify implements the C9 notification bus: an ordered queue
// appended to while node locks may be held, drained only at safe points by
// the driver task, fanned out synchronously to registered watchers with a
// re-entrancy guard.
package zwnotify

import (
	"sync"

	"github.com/google/uuid"
)

// Type enumerates the notification kinds the driver emits. Names mirror
// the embedder-facing vocabulary of §4.6/§4.9/§7.
type Type int

const (
	NodeAdded Type = iota
	NodeRemoved
	NodeQueriesComplete
	AwakeNodesQueried
	AllNodesQueried
	ValueAdded
	ValueChanged
	ValueRefreshed
	ValueRemoved
	ControllerState
	NotificationTimeout
	NotificationGeneric
	DriverReady
	DriverFailed
	DriverRemoved
)

// Notification is the payload delivered to watchers. Fields beyond Type and
// NodeID are optional and interpreted per Type.
type Notification struct {
	Type    Type
	NodeID  uint8
	Message string
	Err     error
	Data    interface{}
}

// WatcherHandle is the opaque subscription token AddWatcher returns;
// RemoveWatcher takes it back. Backed by a UUID so handles never collide
// even across driver restarts within the same process, the way the
// embedder API of §6 implies ("add_watcher(callback)").
type WatcherHandle struct {
	id uuid.UUID
}

// Watcher is invoked synchronously on the driver task for every drained
// notification, in production order.
type Watcher func(Notification)

// Bus is the goroutine-safe notification queue plus watcher registry.
type Bus struct {
	mutex    sync.Mutex
	queue    []Notification
	watchers map[uuid.UUID]Watcher

	draining  bool // re-entrancy guard; Drain only ever runs on the driver task
	onReentry func(string)
}

// NewBus constructs an empty Bus. onReentry, if set, is called with a
// diagnostic message when a watcher illegally calls back into the bus from
// within its own callback; production code should wire this to zwlog.
func NewBus(onReentry func(string)) *Bus {
	return &Bus{
		watchers: make(map[uuid.UUID]Watcher),
		onReentry: onReentry,
	}
}

// Post appends a notification to the queue. Safe to call while node locks
// are held; Post itself never calls a watcher.
func (b *Bus) Post(n Notification) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.queue = append(b.queue, n)
}

// AddWatcher registers a watcher and returns its handle.
func (b *Bus) AddWatcher(w Watcher) WatcherHandle {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	id := uuid.New()
	b.watchers[id] = w
	return WatcherHandle{id: id}
}

// RemoveWatcher unregisters a previously added watcher.
func (b *Bus) RemoveWatcher(h WatcherHandle) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.watchers, h.id)
}

// Drain delivers every queued notification to every registered watcher, in
// production order, then empties the queue. Must only be called from the
// driver task at a safe point (§4.9: "after each transaction step completes
// and before the next is begun"). A watcher that calls Drain (directly or
// via Post triggering a nested Drain on the same goroutine) is detected and
// reported through onReentry instead of deadlocking or corrupting order.
func (b *Bus) Drain() {
	if b.draining {
		if b.onReentry != nil {
			b.onReentry("zwnotify: re-entrant Drain call from within a watcher")
		}
		return
	}

	b.mutex.Lock()
	pending := b.queue
	b.queue = nil
	watchers := make([]Watcher, 0, len(b.watchers))
	for _, w := range b.watchers {
		watchers = append(watchers, w)
	}
	b.mutex.Unlock()

	b.draining = true
	defer func() { b.draining = false }()

	for _, n := range pending {
		for _, w := range watchers {
			w(n)
		}
	}
}

// Pending reports how many notifications are queued and not yet drained,
// for diagnostics and tests.
func (b *Bus) Pending() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.queue)
}
