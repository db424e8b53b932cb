// Package zwpoll implements the C11 poll scheduler: a set of ValueIDs to
// refresh on a timer, a global interval (default 30s) and a per-value
// intensity (0 = disabled, N = once every N cycles), per §4.11.
package zwpoll

import (
	"sync"
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

// DefaultInterval is the global tick period absent configuration, per
// §4.11 ("default 30 s").
const DefaultInterval = 30 * time.Second

// entry tracks one polled ValueID's intensity and how many cycles remain
// until it is next due.
type entry struct {
	intensity int // cycles between polls; 0 means disabled
	countdown int // cycles remaining until this value is due
}

// Scheduler is the goroutine-safe set of polled ValueIDs plus the global
// interval. It owns no goroutine itself - zwdriver calls Tick on its own
// timer, mirroring the single-driver-task model the rest of this module
// follows.
type Scheduler struct {
	mutex    sync.Mutex
	interval time.Duration
	values   map[zwvalue.ID]*entry
}

// New constructs a Scheduler with the given global interval.
func New(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{interval: interval, values: make(map[zwvalue.ID]*entry)}
}

// Interval reports the current global poll interval.
func (s *Scheduler) Interval() time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.interval
}

// SetInterval changes the global poll interval, per the embedder API's
// set_poll_interval.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.interval = d
}

// Enable adds id to the poll set at the given intensity (once every
// intensity cycles), matching Driver::EnablePoll's "already in the poll
// list" no-op and "not in the list" insert, generalized with an intensity
// rather than a flat enable/disable. intensity <= 0 is equivalent to
// Disable.
func (s *Scheduler) Enable(id zwvalue.ID, intensity int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if intensity <= 0 {
		delete(s.values, id)
		return
	}
	if e, ok := s.values[id]; ok {
		e.intensity = intensity
		if e.countdown > intensity {
			e.countdown = intensity
		}
		return
	}
	s.values[id] = &entry{intensity: intensity, countdown: 1}
}

// Disable removes id from the poll set, matching Driver::DisablePoll.
func (s *Scheduler) Disable(id zwvalue.ID) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.values, id)
}

// IsPolled reports whether id is in the poll set and its current
// intensity, matching Driver::isPolled generalized with the intensity.
func (s *Scheduler) IsPolled(id zwvalue.ID) (intensity int, ok bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	e, ok := s.values[id]
	if !ok {
		return 0, false
	}
	return e.intensity, true
}

// Len reports how many ValueIDs are currently polled, for diagnostics.
func (s *Scheduler) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.values)
}

// Tick advances every polled value's countdown by one cycle and returns the
// ValueIDs now due, resetting their countdown back to their intensity.
// Order is unspecified; callers that need per-node ordering should sort
// the result themselves. Called once per Interval elapsed.
func (s *Scheduler) Tick() []zwvalue.ID {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var due []zwvalue.ID
	for id, e := range s.values {
		e.countdown--
		if e.countdown <= 0 {
			due = append(due, id)
			e.countdown = e.intensity
		}
	}
	return due
}
