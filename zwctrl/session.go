package zwctrl

import (
	"sync"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
)

// Session drives a single controller command to completion. It implements
// zwtxn.NoPreempt so the transaction engine refuses ordinary send-queue
// traffic for as long as one command owns the controller, per §4.10: "most
// controller commands hold the Serial API dongle in a special mode until
// they finish or are cancelled."
//
// Only one Session is active at a time; zwdriver owns a single instance for
// the lifetime of the driver.
type Session struct {
	mutex sync.Mutex
	bus   *zwnotify.Bus

	command    ControllerCommand
	active     bool
	targetNode uint8
	ownNodeID  uint8

	commandNode      uint8 // node AddNode/RemoveNode discovered mid-command, 0xff until known
	addingController bool  // AddNode: whether the newly found node is itself a controller
}

// NewSession constructs a Session posting ControllerState notifications to
// bus. bus may be nil in tests.
func NewSession(bus *zwnotify.Bus) *Session {
	return &Session{bus: bus}
}

// Preempting reports whether a controller command currently owns the
// engine, per zwtxn.NoPreempt.
func (s *Session) Preempting() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.active
}

// Active reports the in-progress command, if any.
func (s *Session) Active() (ControllerCommand, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.command, s.active
}

// CommandNode reports the node ID AddNode/RemoveNode/RequestNodeNeighborUpdate
// discovered or is operating on mid-command, once known.
func (s *Session) CommandNode() uint8 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.commandNode
}

// Begin starts cmd against nodeID (ignored by the broadcast-style commands),
// returning the first message the caller must submit through the transaction
// engine's Controller-priority band. ownNodeID is the controller's own node
// ID, needed only by AssignReturnRoute. Mirrors
// Driver::BeginControllerCommand.
func (s *Session) Begin(cmd ControllerCommand, nodeID uint8, highPower bool, ownNodeID uint8) (*zwmessage.Message, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.active {
		return nil, ErrBusy
	}

	msg, err := buildBeginMessage(cmd, nodeID, highPower, ownNodeID)
	if err != nil {
		return nil, err
	}

	s.command = cmd
	s.active = true
	s.targetNode = nodeID
	s.ownNodeID = ownNodeID
	s.commandNode = 0xff
	s.addingController = false

	if cmd == CommandHasNodeFailed || cmd == CommandRequestNodeNeighborUpdate ||
		cmd == CommandAssignReturnRoute || cmd == CommandDeleteAllReturnRoutes {
		s.commandNode = nodeID
	}

	return msg, nil
}

// Cancel stops the in-progress command, per Driver::CancelControllerCommand.
// Returns the stop message to submit, if any; a nil message with a nil error
// means the command was cleared locally with nothing to send on the wire.
func (s *Session) Cancel() (*zwmessage.Message, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.active {
		return nil, ErrNoActiveCommand
	}

	msg, err := buildCancelMessage(s.command)
	if err != nil {
		return nil, err
	}

	if s.command == CommandAddController || s.command == CommandAddDevice {
		s.commandNode = 0xff // no new node to initialize
	}
	s.finishLocked(StateFailed)
	return msg, nil
}

func (s *Session) finishLocked(state ControllerState) {
	s.active = false
	if s.bus != nil {
		s.bus.Post(zwnotify.Notification{Type: zwnotify.ControllerState, NodeID: s.commandNode, Data: state})
	}
}

// report posts an intermediate ControllerState notification without ending
// the session.
func (s *Session) report(state ControllerState) {
	if s.bus != nil {
		s.bus.Post(zwnotify.Notification{Type: zwnotify.ControllerState, NodeID: s.commandNode, Data: state})
	}
}
