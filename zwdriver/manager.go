package zwdriver

import (
	"errors"
	"sync"

	"github.com/OpenZWave/open-zwave-sub002/zwlog"
	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
	"github.com/OpenZWave/open-zwave-sub002/zwserial"
)

// ErrUnknownDriver is returned by Manager operations naming a HomeID with
// no registered Driver.
var ErrUnknownDriver = errors.New("zwdriver: unknown driver")

// Manager owns every open Driver in the process, keyed by HomeID, and fans
// a single watcher registration out across all of them - the Go rendition
// of the teacher's OpenZWave::Manager singleton (a C++ static with a
// process-wide instance pointer), generalized into an explicit owned
// object per Design Note "Singletons and global state -> owned driver
// object + explicit context": nothing here is a package-level global,
// callers construct and hold their own Manager.
type Manager struct {
	mutex   sync.RWMutex
	drivers map[uint32]*Driver
	handles map[*Driver][]zwnotify.WatcherHandle
	relay   []zwnotify.Watcher

	log zwlog.Logger
}

// NewManager constructs an empty Manager. logger may be nil, defaulting to
// zwlog.Discard() and passed to every Driver it opens.
func NewManager(logger zwlog.Logger) *Manager {
	if logger == nil {
		logger = zwlog.Discard()
	}
	return &Manager{
		drivers: make(map[uint32]*Driver),
		handles: make(map[*Driver][]zwnotify.WatcherHandle),
		log:     logger,
	}
}

// AddDriver opens a new Driver against transport/cfg, runs its Initialize
// handshake, and registers it under the HomeID Initialize discovered - the
// collapsed, synchronous form of Manager::AddDriver's "pending until the
// driver posts DriverReady" split, since zwdriver.Open's Initialize call
// already blocks until the handshake completes or fails.
func (m *Manager) AddDriver(cfg Config, transport zwserial.Transport) (*Driver, error) {
	d := New(cfg, transport, m.log)
	if err := d.Open(); err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.drivers[d.HomeID()] = d
	for _, w := range m.relay {
		m.handles[d] = append(m.handles[d], d.AddWatcher(w))
	}
	return d, nil
}

// RemoveDriver closes and forgets the driver owning homeID, per
// Manager::RemoveDriver.
func (m *Manager) RemoveDriver(homeID uint32) error {
	m.mutex.Lock()
	d, ok := m.drivers[homeID]
	if ok {
		delete(m.drivers, homeID)
		delete(m.handles, d)
	}
	m.mutex.Unlock()

	if !ok {
		return ErrUnknownDriver
	}
	return d.Close()
}

// GetDriver returns the driver owning homeID, per Manager::GetDriver.
func (m *Manager) GetDriver(homeID uint32) (*Driver, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	d, ok := m.drivers[homeID]
	return d, ok
}

// Drivers returns every currently registered driver, for diagnostics and
// the cmd/zwctl CLI's status output.
func (m *Manager) Drivers() []*Driver {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make([]*Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		out = append(out, d)
	}
	return out
}

// AddWatcher registers w on every currently open driver, and on every
// driver AddDriver opens afterward, per Manager::AddWatcher/NotifyWatchers'
// network-wide notification fanout - one registration observes every
// HomeID the process manages, not just one Driver's Bus.
func (m *Manager) AddWatcher(w zwnotify.Watcher) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.relay = append(m.relay, w)
	for _, d := range m.drivers {
		m.handles[d] = append(m.handles[d], d.AddWatcher(w))
	}
}
