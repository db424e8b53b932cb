// Package zwvalue implements the C8 value store: ValueID identity, typed
// values with byte-exact Decimal round trip, and the create/get/set/commit
// lifecycle of §4.8.
package zwvalue

import (
	"fmt"
	"sync"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
)

// Genre classifies a value the way the command-class request that produced
// it was classified: Static (queried once), Session (queried per wake
// session) or Dynamic (queried on every refresh/poll).
type Genre int

const (
	GenreStatic Genre = iota
	GenreSession
	GenreDynamic
)

// Kind is the wire/application type a Value carries.
type Kind int

const (
	KindBool Kind = iota
	KindByte
	KindShort
	KindInt
	KindDecimal
	KindString
	KindList
	KindButton
	KindSchedule
	KindRaw
)

// ID identifies a value uniquely within a node: command class, instance
// (v1 multi-instance) or endpoint (v2 multi-channel), and an index meaning
// that is class-specific (e.g. the scale for Meter).
type ID struct {
	NodeID       uint8
	CommandClass uint8
	Instance     uint8
	Index        uint8
}

func (id ID) String() string {
	return fmt.Sprintf("node=%d class=0x%02x inst=%d idx=%d", id.NodeID, id.CommandClass, id.Instance, id.Index)
}

// Decimal carries a byte-exact float value: the decoded float plus the
// precision it was decoded at, so EncodeFloat can reproduce the identical
// wire bytes on a later SET.
type Decimal struct {
	Value     float32
	Precision uint8
}

// Value is a typed, versioned value in the store. Only the field matching
// Kind is meaningful.
type Value struct {
	ID       ID
	Kind     Kind
	Genre    Genre
	Label    string
	Units    string
	ReadOnly bool

	Bool    bool
	Byte    uint8
	Short   int16
	Int     int32
	Decimal Decimal
	String  string
	Raw     []byte
}

// Store is the goroutine-safe value table for one node. §4.8 calls for
// "shared-ownership" reads and an exclusive-writer set path; a RWMutex
// matches that directly.
type Store struct {
	mutex   sync.RWMutex
	values  map[ID]*entry
	watcher func(ChangeKind, Value)
}

type entry struct {
	meta    Value
	pending *Value
}

// ChangeKind distinguishes a value changing from a value merely being
// refreshed to an identical reading, per §4.8's on_value_refreshed rule.
type ChangeKind int

const (
	ValueChanged ChangeKind = iota
	ValueRefreshed
)

// NewStore builds an empty Store. onChange, if non-nil, is invoked
// synchronously from Commit with the notification kind - callers typically
// forward it into zwnotify.
func NewStore(onChange func(ChangeKind, Value)) *Store {
	return &Store{
		values:  make(map[ID]*entry),
		watcher: onChange,
	}
}

// Create idempotently registers a ValueID's metadata. A duplicate Create
// updates label/units/readOnly but never touches the current value, per
// §4.8.
func (s *Store) Create(id ID, kind Kind, genre Genre, label, units string, readOnly bool, def Value) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.values[id]
	if !ok {
		def.ID = id
		def.Kind = kind
		def.Genre = genre
		def.Label = label
		def.Units = units
		def.ReadOnly = readOnly
		s.values[id] = &entry{meta: def}
		return
	}
	e.meta.Label = label
	e.meta.Units = units
	e.meta.ReadOnly = readOnly
}

// Get returns a copy of the current committed value.
func (s *Store) Get(id ID) (Value, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	e, ok := s.values[id]
	if !ok {
		return Value{}, false
	}
	return e.meta, true
}

// All returns a snapshot of every value currently in the store, for
// persistence and diagnostics.
func (s *Store) All() []Value {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]Value, 0, len(s.values))
	for _, e := range s.values {
		out = append(out, e.meta)
	}
	return out
}

// SetPending records a write-in-progress value: the caller (a command
// class) is responsible for encoding and enqueuing the SET; the value only
// becomes current once Commit is called from the REPORT handler. Returns an
// error if the ValueID has never been Create'd, or is marked read-only.
func (s *Store) SetPending(id ID, v Value) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.values[id]
	if !ok {
		return fmt.Errorf("zwvalue: set on unknown value %s", id)
	}
	if e.meta.ReadOnly {
		return fmt.Errorf("zwvalue: set on read-only value %s", id)
	}
	pending := v
	pending.ID = id
	e.pending = &pending
	return nil
}

// Pending returns the write-in-progress value set by SetPending, if any.
func (s *Store) Pending(id ID) (Value, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	e, ok := s.values[id]
	if !ok || e.pending == nil {
		return Value{}, false
	}
	return *e.pending, true
}

// bytesOf renders a Value's payload as comparable bytes for the
// Changed-vs-Refreshed decision. Decimal uses the exact wire encoding so
// precision participates in the comparison as the spec requires.
func bytesOf(v Value) ([]byte, error) {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case KindByte:
		return []byte{v.Byte}, nil
	case KindShort:
		return []byte{uint8(v.Short >> 8), uint8(v.Short)}, nil
	case KindInt:
		return []byte{uint8(v.Int >> 24), uint8(v.Int >> 16), uint8(v.Int >> 8), uint8(v.Int)}, nil
	case KindDecimal:
		data, _, err := zwmessage.EncodeFloat(v.Decimal.Value, v.Decimal.Precision)
		return data, err
	case KindString:
		return []byte(v.String), nil
	case KindRaw:
		return v.Raw, nil
	default:
		return nil, nil
	}
}

// Commit installs a freshly-reported value as current, reporting whether
// it differs from the previous committed value (ValueChanged) or matches it
// (ValueRefreshed), and invokes the configured watcher with that
// classification, per §4.8's on_value_refreshed.
func (s *Store) Commit(id ID, v Value) (ChangeKind, error) {
	s.mutex.Lock()

	e, ok := s.values[id]
	if !ok {
		e = &entry{}
		s.values[id] = e
	}

	v.ID = id
	v.Kind = e.meta.Kind
	if e.meta.Label != "" {
		v.Label = e.meta.Label
		v.Units = e.meta.Units
		v.ReadOnly = e.meta.ReadOnly
	}

	oldBytes, err := bytesOf(e.meta)
	if err != nil {
		s.mutex.Unlock()
		return ValueChanged, err
	}
	newBytes, err := bytesOf(v)
	if err != nil {
		s.mutex.Unlock()
		return ValueChanged, err
	}

	kind := ValueChanged
	if ok && string(oldBytes) == string(newBytes) {
		kind = ValueRefreshed
	}

	e.meta = v
	e.pending = nil
	watcher := s.watcher
	s.mutex.Unlock()

	if watcher != nil {
		watcher(kind, v)
	}
	return kind, nil
}
