// Package zwcc implements the command-class framework: the CommandClass
// interface every device class satisfies, a registry keyed by class ID, a
// base struct with sane no-op defaults, and the encapsulation envelopes
// (multi-instance, multi-channel, multi-command) incoming application
// frames may be wrapped in.
package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwframe"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

// StateFlags selects which group of a class's GET requests RequestState
// should build, matching the query pipeline's Static/Session/Dynamic
// stages.
type StateFlags int

const (
	StateStatic StateFlags = iota
	StateSession
	StateDynamic
)

// CommandClass is what every device class implements. Only HandleMsg is
// mandatory; the rest have no-op defaults on Base that a concrete class
// overrides only when it applies.
type CommandClass interface {
	ClassID() uint8
	Version() uint8
	SetVersion(v uint8)

	// HandleMsg parses an inbound REPORT (or other unsolicited frame) and
	// updates store. It reports whether the frame was recognized.
	HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error)

	// RequestState builds the GET messages for a given query-pipeline
	// phase. Returns nil if this class has nothing to request for flags.
	RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message

	// RequestValue builds a single-value refresh GET, for the poll
	// scheduler. Returns nil if index is not pollable on this class.
	RequestValue(index uint8, instance uint8, nodeID uint8) *zwmessage.Message

	// SetValue encodes a SET for v. Returns an error if the class has no
	// writable representation of v.
	SetValue(instance uint8, nodeID uint8, v zwvalue.Value) (*zwmessage.Message, error)

	// CreateVars registers this class's ValueIDs in store for a newly
	// discovered instance.
	CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store)
}

// Base gives concrete classes class ID/version bookkeeping and safe no-op
// defaults for every optional CommandClass method, so a read-only
// notification-style class (Alarm, BinarySensor) need not stub all of
// them out by hand.
type Base struct {
	classID uint8
	version uint8
}

// NewBase constructs a Base for classID, defaulting to version 1 per
// §4.7's version-negotiation rule ("otherwise each class defaults to
// version 1").
func NewBase(classID uint8) Base {
	return Base{classID: classID, version: 1}
}

func (b *Base) ClassID() uint8     { return b.classID }
func (b *Base) Version() uint8     { return b.version }
func (b *Base) SetVersion(v uint8) { b.version = v }

func (b *Base) RequestState(StateFlags, uint8, uint8) []*zwmessage.Message { return nil }
func (b *Base) RequestValue(uint8, uint8, uint8) *zwmessage.Message        { return nil }
func (b *Base) SetValue(uint8, uint8, zwvalue.Value) (*zwmessage.Message, error) {
	return nil, fmt.Errorf("zwcc: class 0x%02x has no settable value", b.classID)
}
func (b *Base) CreateVars(uint8, uint8, *zwvalue.Store) {}

// Factory constructs a fresh CommandClass instance for a class ID, used by
// Register/New so each node gets its own instance (version negotiation is
// per node, not global).
type Factory func(classID uint8) CommandClass

var registry = make(map[uint8]Factory)

// Register installs a class constructor under classID. Called from each
// concrete class's package init().
func Register(classID uint8, f Factory) {
	registry[classID] = f
}

// New constructs a fresh CommandClass for classID, or reports false if no
// class is registered for it (an unknown class in a node's NIF is still
// recorded structurally by zwnode, just without typed behavior).
func New(classID uint8) (CommandClass, bool) {
	f, ok := registry[classID]
	if !ok {
		return nil, false
	}
	return f(classID), true
}

// Registered reports whether a class ID has a concrete implementation.
func Registered(classID uint8) bool {
	_, ok := registry[classID]
	return ok
}

// NewSendData builds the outbound ZWSendData Message carrying classID and
// payload to nodeID, per §6's "class ID occupies the first application
// byte" rule. A ZWSendData always carries a callback (the TX-complete
// status); expectReport additionally arms the engine to hold the
// transaction open for a matching-class ApplicationCommandHandler REPORT.
func NewSendData(targetNode uint8, classID uint8, payload []uint8, expectReport bool) *zwmessage.Message {
	var m *zwmessage.Message
	if expectReport {
		m = zwmessage.New(zwmessage.FuncZWSendData, targetNode, zwframe.TypeRequest, true, true, classID)
	} else {
		m = zwmessage.New(zwmessage.FuncZWSendData, targetNode, zwframe.TypeRequest, true, true)
	}
	m.AppendByte(targetNode)
	m.AppendByte(uint8(1 + len(payload)))
	m.AppendByte(classID)
	m.AppendSlice(payload)
	m.AppendByte(zwmessage.TransmitOptionACK | zwmessage.TransmitOptionAutoRoute)
	return m
}
