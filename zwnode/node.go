// Package zwnode implements the C6 node model and query pipeline: per-node
// protocol/device-class state, the command-class table, group membership,
// the node's value store, and the fixed query-stage sequence each node is
// driven through after discovery.
package zwnode

import (
	"sync"

	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

// Security flag bits, per the original library's Node capability byte
// (SecurityFlag_* in Node.h).
const (
	SecurityFlagSecurity           uint8 = 0x01
	SecurityFlagController         uint8 = 0x02
	SecurityFlagSpecificDevice     uint8 = 0x04
	SecurityFlagRoutingSlave       uint8 = 0x08
	SecurityFlagBeamCapability     uint8 = 0x10
	SecurityFlagSensor250ms        uint8 = 0x20
	SecurityFlagSensor1000ms       uint8 = 0x40
	SecurityFlagOptionalFunctions  uint8 = 0x80
)

// Basic device type codes, per Node.h's BasicType_* enum.
const (
	BasicTypeUnknown         uint8 = 0x00
	BasicTypeController      uint8 = 0x01
	BasicTypeStaticController uint8 = 0x02
	BasicTypeSlave           uint8 = 0x03
	BasicTypeRoutingSlave    uint8 = 0x04
)

// Group is a single association group: its members and a human label.
// MaxAssociations mirrors the original source's Group::WriteXML/ReadXML
// "max_associations" attribute - the number of slots the Association
// Groupings Report advertised for this group, independent of how many are
// currently occupied.
type Group struct {
	Index           uint8
	Label           string
	Members         []uint8
	MaxAssociations int
}

// Node is the per-device record §4.6 describes: protocol info, device type
// codes, manufacturer/product identity, user-editable name/location, the
// command-class table, association groups, a value store, and the query
// stage driving discovery. Mutation is serialized through mutex, matching
// the teacher's own node.mutex (sync.RWMutex) pattern.
type Node struct {
	mutex sync.RWMutex

	ID uint8

	Listening  bool
	Routing    bool
	MaxBaud    uint32
	Version    uint8
	Security   uint8
	Basic      uint8
	Generic    uint8
	Specific   uint8

	ManufacturerID uint16
	ProductType    uint16
	ProductID      uint16

	Name     string
	Location string

	// Supported holds command classes this node exposes and can be talked
	// to about; Controlled holds classes from after the NIF's "after-mark"
	// separator, which the node can issue but does not itself respond to
	// (§4.7's dispatch rule #2 routes these to HandleIncomingMsg instead of
	// updating local values).
	Supported  map[uint8]zwcc.CommandClass
	Controlled map[uint8]bool

	// ClassVersions records the negotiated wire version per class, set
	// during the Versions stage (or left at 1, the Base default).
	ClassVersions map[uint8]uint8

	Groups map[uint8]*Group

	Store *zwvalue.Store

	stage  QueryStage
	budget map[QueryStage]int
	buffer pendingBuffer // frames for not-yet-discovered classes, §4.7 rule 3
	awake  bool
	dead   bool
}

// New constructs a freshly discovered node, created on first discovery per
// §4.6 ("Created on first discovery, destroyed on NodeRemoved").
func New(nodeID uint8, onChange func(zwvalue.ChangeKind, zwvalue.Value)) *Node {
	return &Node{
		ID:            nodeID,
		Supported:     make(map[uint8]zwcc.CommandClass),
		Controlled:    make(map[uint8]bool),
		ClassVersions: make(map[uint8]uint8),
		Groups:        make(map[uint8]*Group),
		Store:         zwvalue.NewStore(onChange),
		stage:         StageNone,
		budget:        make(map[QueryStage]int),
		awake:         true,
	}
}

// Stage returns the node's current query stage.
func (n *Node) Stage() QueryStage {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.stage
}

// Awake reports whether the pipeline believes this node can currently be
// talked to. Listening nodes are always awake; non-listening nodes become
// awake only between a WakeUpNotification and the following
// WakeUpNoMoreInformation.
func (n *Node) Awake() bool {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.Listening || n.awake
}

// SetAwake marks a non-listening node awake or asleep, driven by the
// WakeUp class's notification handling.
func (n *Node) SetAwake(awake bool) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.awake = awake
}

// Dead reports whether the node has exhausted retries badly enough to be
// considered unreachable (counted separately from AllNodesQueried's "or is
// marked dead" clause).
func (n *Node) Dead() bool {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.dead
}

// MarkDead records the node as unreachable so AllNodesQueried doesn't wait
// on it forever.
func (n *Node) MarkDead() {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.dead = true
}

// ClassByID returns the node's instance of a supported command class, if
// any.
func (n *Node) ClassByID(classID uint8) (zwcc.CommandClass, bool) {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	cc, ok := n.Supported[classID]
	return cc, ok
}

// Table is the node arena: a single "nodes" lock guarding a map keyed by
// node ID, per §5's "readers acquire shared, mutators exclusive; the driver
// task is the only mutator" rule. Nodes are referenced by ID rather than
// pointer chains elsewhere in the driver, matching the "arena + stable
// indices" ownership model of §4's cyclic-ownership note.
type Table struct {
	mutex sync.RWMutex
	nodes map[uint8]*Node
}

// NewTable constructs an empty node arena.
func NewTable() *Table {
	return &Table{nodes: make(map[uint8]*Node)}
}

// Get returns the node for nodeID, if discovered.
func (t *Table) Get(nodeID uint8) (*Node, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	n, ok := t.nodes[nodeID]
	return n, ok
}

// GetOrCreate returns the existing node for nodeID, or creates and installs
// a fresh one, per §4.6's "created on first discovery".
func (t *Table) GetOrCreate(nodeID uint8, onChange func(zwvalue.ChangeKind, zwvalue.Value)) (*Node, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if n, ok := t.nodes[nodeID]; ok {
		return n, false
	}
	n := New(nodeID, onChange)
	t.nodes[nodeID] = n
	return n, true
}

// Remove deletes a node from the arena, per NodeRemoved.
func (t *Table) Remove(nodeID uint8) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.nodes, nodeID)
}

// All returns a snapshot of every discovered node, for iteration by the
// poll scheduler and completion-notification checks.
func (t *Table) All() []*Node {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	out := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	return out
}

// Len reports the number of discovered nodes.
func (t *Table) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.nodes)
}
