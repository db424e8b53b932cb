// Package zwqueue implements the C5 send queue: a six priority-band queue
// feeding the transaction engine, plus the per-node wake-up queue that
// messages to a sleeping node are diverted into per §4.4/§4.5.
package zwqueue

import (
	"container/list"
	"sync"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
)

// Priority identifies one of the six send bands, highest first.
type Priority int

const (
	NoOp Priority = iota
	Controller
	WakeUp
	Command
	Query
	Poll
	numPriorities
)

func (p Priority) String() string {
	switch p {
	case NoOp:
		return "NoOp"
	case Controller:
		return "Controller"
	case WakeUp:
		return "WakeUp"
	case Command:
		return "Command"
	case Query:
		return "Query"
	case Poll:
		return "Poll"
	default:
		return "Unknown"
	}
}

// Entry wraps a queued message with the band it was enqueued under.
type Entry struct {
	Message  *zwmessage.Message
	Priority Priority
}

// Queue is the goroutine-safe six-band FIFO plus per-node wake-up queues.
// All public methods lock internally; callers do not need external
// synchronization.
type Queue struct {
	mutex    sync.Mutex
	bands    [numPriorities]*list.List
	wakeups  map[uint8]*list.List // per-node wake-up FIFO, keyed by node ID
	awake    map[uint8]bool       // node ID -> known-awake (listening nodes are always true)
}

// New constructs an empty Queue.
func New() *Queue {
	q := &Queue{
		wakeups: make(map[uint8]*list.List),
		awake:   make(map[uint8]bool),
	}
	for i := range q.bands {
		q.bands[i] = list.New()
	}
	return q
}

// Enqueue inserts msg at the tail of the given band, dropping it if a
// byte-equal message (per Message.Equal, which ignores the callback ID) is
// already queued anywhere in that band, per §4.5's dedup rule.
func (q *Queue) Enqueue(priority Priority, msg *zwmessage.Message) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	band := q.bands[priority]
	for e := band.Front(); e != nil; e = e.Next() {
		if e.Value.(*zwmessage.Message).Equal(msg) {
			return false
		}
	}
	band.PushBack(msg)
	return true
}

// Dequeue pulls the head message from the highest non-empty band. It
// reports false if every band is empty.
func (q *Queue) Dequeue() (*zwmessage.Message, Priority, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for p := Priority(0); p < numPriorities; p++ {
		band := q.bands[p]
		if front := band.Front(); front != nil {
			band.Remove(front)
			return front.Value.(*zwmessage.Message), p, true
		}
	}
	return nil, 0, false
}

// Len returns the total number of queued messages across all bands.
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	n := 0
	for _, band := range q.bands {
		n += band.Len()
	}
	return n
}

// BandLen returns the number of queued messages in a single band, for
// zwmetrics gauges.
func (q *Queue) BandLen(priority Priority) int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.bands[priority].Len()
}

// MarkListening registers a node as always-awake: messages to it are never
// diverted to a wake-up queue.
func (q *Queue) MarkListening(nodeID uint8) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.awake[nodeID] = true
}

// SleepNode declares nodeID asleep (§4.4: a non-listening node whose
// transaction failed with no reply). Every queued message targeting that
// node is pulled out of its current band - except any
// FuncWakeUpNoMoreInformation message, which is dropped outright - and
// appended to the node's wake-up queue in original order.
func (q *Queue) SleepNode(nodeID uint8, isWakeUpNoMoreInfo func(*zwmessage.Message) bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.awake[nodeID] = false
	wake := q.wakeups[nodeID]
	if wake == nil {
		wake = list.New()
		q.wakeups[nodeID] = wake
	}

	for _, band := range q.bands {
		var next *list.Element
		for e := band.Front(); e != nil; e = next {
			next = e.Next()
			msg := e.Value.(*zwmessage.Message)
			if msg.TargetNode != nodeID {
				continue
			}
			band.Remove(e)
			if isWakeUpNoMoreInfo != nil && isWakeUpNoMoreInfo(msg) {
				continue
			}
			wake.PushBack(msg)
		}
	}
}

// WakeNode implements §4.5's wake-up handling: mark the node awake,
// re-inject its wake-up queue at the front of the WakeUp band (in FIFO
// order), then append noMoreInfo as the final message so the dongle can let
// the node sleep again.
func (q *Queue) WakeNode(nodeID uint8, noMoreInfo *zwmessage.Message) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.awake[nodeID] = true
	wake := q.wakeups[nodeID]

	band := q.bands[WakeUp]
	var pending []*zwmessage.Message
	if wake != nil {
		for e := wake.Front(); e != nil; e = e.Next() {
			pending = append(pending, e.Value.(*zwmessage.Message))
		}
		wake.Init()
	}
	if noMoreInfo != nil {
		pending = append(pending, noMoreInfo)
	}

	// Insert at the front of the band, preserving FIFO order among
	// themselves, ahead of whatever else is already queued in WakeUp.
	for i := len(pending) - 1; i >= 0; i-- {
		band.PushFront(pending[i])
	}
}

// IsAwake reports whether nodeID is currently believed awake. Listening
// nodes and nodes never put to sleep default to true.
func (q *Queue) IsAwake(nodeID uint8) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	awake, known := q.awake[nodeID]
	return !known || awake
}

// WakeupQueueLen reports how many messages are parked in a node's wake-up
// queue, for diagnostics and tests.
func (q *Queue) WakeupQueueLen(nodeID uint8) int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	wake := q.wakeups[nodeID]
	if wake == nil {
		return 0
	}
	return wake.Len()
}
