package zwctrl

import "github.com/OpenZWave/open-zwave-sub002/zwmessage"

// ADD_NODE_STATUS_* / REMOVE_NODE_STATUS_* sub-status bytes, Defs.h. AddNode,
// CreateNewPrimary and TransferPrimaryRole (controller change) all report
// through the same ADD_NODE_STATUS_* vocabulary (CommonAddNodeStatusRequestHandler).
const (
	addNodeStatusLearnReady       uint8 = 0x01
	addNodeStatusNodeFound        uint8 = 0x02
	addNodeStatusAddingSlave      uint8 = 0x03
	addNodeStatusAddingController uint8 = 0x04
	addNodeStatusProtocolDone     uint8 = 0x05
	addNodeStatusDone             uint8 = 0x06
	addNodeStatusFailed           uint8 = 0x07

	removeNodeStatusLearnReady        uint8 = 0x01
	removeNodeStatusNodeFound         uint8 = 0x02
	removeNodeStatusRemovingSlave     uint8 = 0x03
	removeNodeStatusRemovingController uint8 = 0x04
	removeNodeStatusDone              uint8 = 0x06
	removeNodeStatusFailed            uint8 = 0x07

	learnModeStarted uint8 = 0x01
	learnModeDone    uint8 = 0x06
	learnModeFailed  uint8 = 0x07
	learnModeDeleted uint8 = 0x80

	failedNodeOK           uint8 = 0x00
	failedNodeRemoved      uint8 = 0x01
	failedNodeNotRemoved   uint8 = 0x02
	failedNodeReplaceWait  uint8 = 0x03
	failedNodeReplaceDone  uint8 = 0x04
	failedNodeReplaceFail  uint8 = 0x05

	sucUpdateDone     uint8 = 0x00
	sucUpdateAbort    uint8 = 0x01
	sucUpdateWait     uint8 = 0x02
	sucUpdateDisabled uint8 = 0x03
	sucUpdateOverflow uint8 = 0x04
)

// Result reports the outcome of a frame handed to OnRequest/OnResponse: the
// state to surface to the embedder, an optional message the caller must
// submit next (e.g. the implicit "stop add mode" that follows
// ADD_NODE_STATUS_PROTOCOL_DONE), and whether the session has now finished.
type Result struct {
	State    ControllerState
	HasState bool
	Next     *zwmessage.Message
	Finished bool
}

// OnResponse processes the immediate RESPONSE frame for commands that get
// one (HasNodeFailed, RemoveFailedNode, ReplaceFailedNode): payload[0] is
// the accept/reject code, with 0 meaning "accepted, in progress" and
// non-zero meaning the command was rejected outright.
func (s *Session) OnResponse(funcID uint8, payload []byte) Result {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.active || len(payload) == 0 {
		return Result{}
	}

	switch funcID {
	case zwmessage.FuncIsFailedNodeID:
		state := StateNodeOK
		if payload[0] != 0 {
			state = StateNodeFailed
		}
		s.finishLocked(state)
		return Result{State: state, HasState: true, Finished: true}

	case zwmessage.FuncRemoveFailedNodeID, zwmessage.FuncReplaceFailedNodeID:
		if payload[0] != 0 {
			s.finishLocked(StateFailed)
			return Result{State: StateFailed, HasState: true, Finished: true}
		}
		s.report(StateInProgress)
		return Result{State: StateInProgress, HasState: true}
	}

	return Result{}
}

// OnRequest processes a REQUEST (callback) frame for the active command.
// payload[0] is the callback ID the transaction engine already matched;
// payload[1] is the sub-status byte, and payload[2:] any accompanying data
// (typically the affected node ID).
func (s *Session) OnRequest(funcID uint8, payload []byte) Result {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.active || len(payload) < 2 {
		return Result{}
	}
	status := payload[1]
	extra := payload[2:]

	switch funcID {
	case zwmessage.FuncAddNodeToNetwork, zwmessage.FuncCreateNewPrimary, zwmessage.FuncControllerChange:
		return s.handleAddNodeStatusLocked(status, extra)
	case zwmessage.FuncRemoveNodeFromNetwork:
		return s.handleRemoveNodeStatusLocked(status, extra)
	case zwmessage.FuncSetLearnMode:
		return s.handleLearnModeLocked(status)
	case zwmessage.FuncRemoveFailedNodeID:
		return s.handleFailedNodeOutcomeLocked(status, false)
	case zwmessage.FuncReplaceFailedNodeID:
		return s.handleFailedNodeOutcomeLocked(status, true)
	case zwmessage.FuncRequestNetworkUpdate:
		return s.handleNetworkUpdateLocked(status)
	}
	return Result{}
}

func (s *Session) handleAddNodeStatusLocked(status uint8, extra []byte) Result {
	switch status {
	case addNodeStatusLearnReady:
		s.addingController = false
		s.report(StateWaiting)
		return Result{State: StateWaiting, HasState: true}

	case addNodeStatusNodeFound:
		s.report(StateInProgress)
		return Result{State: StateInProgress, HasState: true}

	case addNodeStatusAddingSlave:
		s.addingController = false
		if len(extra) > 0 {
			s.commandNode = extra[0]
		}
		return Result{}

	case addNodeStatusAddingController:
		s.addingController = true
		if len(extra) > 0 {
			s.commandNode = extra[0]
		}
		return Result{}

	case addNodeStatusProtocolDone:
		// Controller-to-controller replication is out of scope; always take
		// the controller out of add mode instead of starting a replication
		// stream, matching the device-only branch of
		// Driver::CommonAddNodeStatusRequestHandler.
		m := zwmessage.New(s.addModeFunc(), zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(addNodeStop)
		return Result{Next: m}

	case addNodeStatusDone:
		s.finishLocked(StateCompleted)
		return Result{State: StateCompleted, HasState: true, Finished: true}

	case addNodeStatusFailed:
		s.finishLocked(StateFailed)
		return Result{State: StateFailed, HasState: true, Finished: true}
	}
	return Result{}
}

// addModeFunc returns the function ID that put the controller into add mode,
// needed to address the "mode stop" message correctly for whichever of the
// three commands sharing ADD_NODE_STATUS_* vocabulary is active.
func (s *Session) addModeFunc() uint8 {
	switch s.command {
	case CommandCreateNewPrimary:
		return zwmessage.FuncCreateNewPrimary
	case CommandTransferPrimaryRole:
		return zwmessage.FuncControllerChange
	default:
		return zwmessage.FuncAddNodeToNetwork
	}
}

func (s *Session) handleRemoveNodeStatusLocked(status uint8, extra []byte) Result {
	switch status {
	case removeNodeStatusLearnReady:
		s.commandNode = 0
		s.report(StateWaiting)
		return Result{State: StateWaiting, HasState: true}

	case removeNodeStatusNodeFound:
		s.report(StateInProgress)
		return Result{State: StateInProgress, HasState: true}

	case removeNodeStatusRemovingSlave:
		if len(extra) > 0 {
			s.commandNode = extra[0]
		}
		return Result{}

	case removeNodeStatusRemovingController:
		if len(extra) > 0 && extra[0] != 0 {
			s.commandNode = extra[0]
		}
		// extra[0]==0 case: some controllers omit the node ID here; the
		// original falls back to matching basic/generic/specific against
		// the node table, which belongs to zwdriver (it owns the table),
		// not this package.
		return Result{}

	case removeNodeStatusDone:
		s.finishLocked(StateCompleted)
		return Result{State: StateCompleted, HasState: true, Finished: true}

	case removeNodeStatusFailed:
		s.finishLocked(StateFailed)
		return Result{State: StateFailed, HasState: true, Finished: true}
	}
	return Result{}
}

func (s *Session) handleLearnModeLocked(status uint8) Result {
	switch status {
	case learnModeStarted:
		s.report(StateWaiting)
		return Result{State: StateWaiting, HasState: true}

	case learnModeDone:
		s.finishLocked(StateCompleted)
		m := zwmessage.New(zwmessage.FuncSetLearnMode, zwmessage.BroadcastNodeID, 0, false, false)
		m.AppendByte(learnModeStop)
		return Result{State: StateCompleted, HasState: true, Finished: true, Next: m}

	case learnModeFailed:
		s.finishLocked(StateFailed)
		m := zwmessage.New(zwmessage.FuncControllerChange, zwmessage.BroadcastNodeID, 0, true, false)
		m.AppendByte(controllerChangeStopFailed)
		return Result{State: StateFailed, HasState: true, Finished: true, Next: m}

	case learnModeDeleted:
		return Result{}
	}
	return Result{}
}

func (s *Session) handleFailedNodeOutcomeLocked(status uint8, replace bool) Result {
	if !replace {
		switch status {
		case failedNodeOK:
			s.finishLocked(StateNodeOK)
			return Result{State: StateNodeOK, HasState: true, Finished: true}
		case failedNodeRemoved:
			s.finishLocked(StateCompleted)
			return Result{State: StateCompleted, HasState: true, Finished: true}
		case failedNodeNotRemoved:
			s.finishLocked(StateFailed)
			return Result{State: StateFailed, HasState: true, Finished: true}
		}
		return Result{}
	}

	switch status {
	case failedNodeOK:
		s.finishLocked(StateNodeOK)
		return Result{State: StateNodeOK, HasState: true, Finished: true}
	case failedNodeReplaceWait:
		s.report(StateWaiting)
		return Result{State: StateWaiting, HasState: true}
	case failedNodeReplaceDone:
		s.finishLocked(StateCompleted)
		return Result{State: StateCompleted, HasState: true, Finished: true}
	case failedNodeReplaceFail:
		s.finishLocked(StateFailed)
		return Result{State: StateFailed, HasState: true, Finished: true}
	}
	return Result{}
}

func (s *Session) handleNetworkUpdateLocked(status uint8) Result {
	state := StateFailed
	switch status {
	case sucUpdateDone:
		state = StateCompleted
	case sucUpdateAbort, sucUpdateWait, sucUpdateDisabled, sucUpdateOverflow:
		state = StateFailed
	}
	s.finishLocked(state)
	return Result{State: state, HasState: true, Finished: true}
}

const controllerChangeStopFailed uint8 = 0x06
