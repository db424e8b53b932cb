package zwctrl

import "github.com/OpenZWave/open-zwave-sub002/zwmessage"

// AddNode/RemoveNode mode bytes, Defs.h ADD_NODE_*/REMOVE_NODE_*.
const (
	addNodeAny        uint8 = 0x01
	addNodeController uint8 = 0x02
	addNodeSlave      uint8 = 0x03
	addNodeStop       uint8 = 0x05

	removeNodeAny  uint8 = 0x01
	removeNodeStop uint8 = 0x05

	createPrimaryStart uint8 = 0x02
	createPrimaryStop  uint8 = 0x05

	controllerChangeStart uint8 = 0x02
	controllerChangeStop  uint8 = 0x05

	optionHighPower uint8 = 0x80

	// setLearnMode's single argument is 0xff to start, 0 to stop.
	learnModeStart uint8 = 0xff
	learnModeStop  uint8 = 0x00
)

// buildBeginMessage returns the first message to send for cmd, mirroring
// Driver::BeginControllerCommand's per-command switch. ownNodeID is only
// used by AssignReturnRoute, which needs the controller's own node ID as
// the route's destination.
func buildBeginMessage(cmd ControllerCommand, nodeID uint8, highPower bool, ownNodeID uint8) (*zwmessage.Message, error) {
	switch cmd {
	case CommandAddController:
		m := zwmessage.New(zwmessage.FuncAddNodeToNetwork, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(withPower(addNodeController, highPower))
		return m, nil

	case CommandAddDevice:
		m := zwmessage.New(zwmessage.FuncAddNodeToNetwork, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(withPower(addNodeSlave, highPower))
		return m, nil

	case CommandCreateNewPrimary:
		m := zwmessage.New(zwmessage.FuncCreateNewPrimary, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(createPrimaryStart)
		return m, nil

	case CommandReceiveConfiguration:
		m := zwmessage.New(zwmessage.FuncSetLearnMode, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(learnModeStart)
		return m, nil

	case CommandRemoveController, CommandRemoveDevice:
		// Driver.cpp builds both from REMOVE_NODE_ANY; there is no distinct
		// "remove only a controller" mode byte in the Serial API.
		m := zwmessage.New(zwmessage.FuncRemoveNodeFromNetwork, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(withPower(removeNodeAny, highPower))
		return m, nil

	case CommandHasNodeFailed:
		m := zwmessage.New(zwmessage.FuncIsFailedNodeID, zwmessage.BroadcastNodeID, 0, true, false)
		m.AppendByte(nodeID)
		return m, nil

	case CommandRemoveFailedNode:
		m := zwmessage.New(zwmessage.FuncRemoveFailedNodeID, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(nodeID)
		return m, nil

	case CommandReplaceFailedNode:
		m := zwmessage.New(zwmessage.FuncReplaceFailedNodeID, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(nodeID)
		return m, nil

	case CommandTransferPrimaryRole:
		m := zwmessage.New(zwmessage.FuncControllerChange, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(controllerChangeStart)
		return m, nil

	case CommandRequestNetworkUpdate:
		return zwmessage.New(zwmessage.FuncRequestNetworkUpdate, zwmessage.BroadcastNodeID, 0, true, true), nil

	case CommandRequestNodeNeighborUpdate:
		m := zwmessage.New(zwmessage.FuncRequestNodeNeighborUpdate, nodeID, 0, true, true)
		m.AppendByte(nodeID)
		return m, nil

	case CommandAssignReturnRoute:
		m := zwmessage.New(zwmessage.FuncAssignReturnRoute, nodeID, 0, true, true)
		m.AppendByte(nodeID)
		m.AppendByte(ownNodeID)
		return m, nil

	case CommandDeleteAllReturnRoutes:
		m := zwmessage.New(zwmessage.FuncDeleteReturnRoute, nodeID, 0, true, true)
		m.AppendByte(nodeID)
		return m, nil

	default:
		return nil, ErrNoActiveCommand
	}
}

// buildCancelMessage returns the stop message for cmd, or (nil, nil) for a
// command that has nothing to send on cancel (Driver::CancelControllerCommand's
// "to keep gcc quiet" cases - the command is simply cleared locally), or
// (nil, ErrNotCancellable) for the three commands the original never allows
// to be interrupted mid-flight.
func buildCancelMessage(cmd ControllerCommand) (*zwmessage.Message, error) {
	switch cmd {
	case CommandAddController, CommandAddDevice:
		m := zwmessage.New(zwmessage.FuncAddNodeToNetwork, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(addNodeStop)
		return m, nil

	case CommandCreateNewPrimary:
		m := zwmessage.New(zwmessage.FuncCreateNewPrimary, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(createPrimaryStop)
		return m, nil

	case CommandReceiveConfiguration:
		m := zwmessage.New(zwmessage.FuncSetLearnMode, zwmessage.BroadcastNodeID, 0, false, false)
		m.AppendByte(learnModeStop)
		return m, nil

	case CommandRemoveController, CommandRemoveDevice:
		m := zwmessage.New(zwmessage.FuncRemoveNodeFromNetwork, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(removeNodeStop)
		return m, nil

	case CommandTransferPrimaryRole:
		m := zwmessage.New(zwmessage.FuncControllerChange, zwmessage.BroadcastNodeID, 0, true, true)
		m.AppendByte(controllerChangeStop)
		return m, nil

	case CommandRemoveFailedNode, CommandHasNodeFailed, CommandReplaceFailedNode:
		return nil, ErrNotCancellable

	default:
		return nil, nil
	}
}

func withPower(mode uint8, highPower bool) uint8 {
	if highPower {
		return mode | optionHighPower
	}
	return mode
}
