// Package zwctrl implements the C10 controller-command state machines:
// AddNode/RemoveNode/CreateNewPrimary/ReceiveConfiguration/TransferPrimaryRole
// and the simpler single-shot network-management commands, all of which
// preempt the ordinary send queue until they finish (§4.10).
package zwctrl

import "errors"

// ControllerCommand enumerates the network-management operations a
// controller can perform, per §4.10 and Driver.h's ControllerCommand_*.
type ControllerCommand int

const (
	CommandNone ControllerCommand = iota
	CommandAddController
	CommandAddDevice
	CommandCreateNewPrimary
	CommandReceiveConfiguration
	CommandRemoveController
	CommandRemoveDevice
	CommandRemoveFailedNode
	CommandHasNodeFailed
	CommandReplaceFailedNode
	CommandTransferPrimaryRole
	CommandRequestNetworkUpdate
	CommandRequestNodeNeighborUpdate
	CommandAssignReturnRoute
	CommandDeleteAllReturnRoutes
)

func (c ControllerCommand) String() string {
	switch c {
	case CommandNone:
		return "None"
	case CommandAddController:
		return "AddController"
	case CommandAddDevice:
		return "AddDevice"
	case CommandCreateNewPrimary:
		return "CreateNewPrimary"
	case CommandReceiveConfiguration:
		return "ReceiveConfiguration"
	case CommandRemoveController:
		return "RemoveController"
	case CommandRemoveDevice:
		return "RemoveDevice"
	case CommandRemoveFailedNode:
		return "RemoveFailedNode"
	case CommandHasNodeFailed:
		return "HasNodeFailed"
	case CommandReplaceFailedNode:
		return "ReplaceFailedNode"
	case CommandTransferPrimaryRole:
		return "TransferPrimaryRole"
	case CommandRequestNetworkUpdate:
		return "RequestNetworkUpdate"
	case CommandRequestNodeNeighborUpdate:
		return "RequestNodeNeighborUpdate"
	case CommandAssignReturnRoute:
		return "AssignReturnRoute"
	case CommandDeleteAllReturnRoutes:
		return "DeleteAllReturnRoutes"
	default:
		return "Unknown"
	}
}

// ControllerState is reported to the embedder via zwnotify.ControllerState
// notifications as a command progresses, per Driver.h's ControllerState_*.
type ControllerState int

const (
	StateNormal ControllerState = iota
	StateWaiting
	StateInProgress
	StateCompleted
	StateFailed
	StateNodeOK
	StateNodeFailed
)

func (s ControllerState) String() string {
	switch s {
	case StateNormal:
		return "Normal"
	case StateWaiting:
		return "Waiting"
	case StateInProgress:
		return "InProgress"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	case StateNodeOK:
		return "NodeOK"
	case StateNodeFailed:
		return "NodeFailed"
	default:
		return "Unknown"
	}
}

var (
	ErrBusy            = errors.New("zwctrl: a controller command is already in progress")
	ErrNotCancellable  = errors.New("zwctrl: RemoveFailedNode, HasNodeFailed and ReplaceFailedNode cannot be cancelled")
	ErrNoActiveCommand = errors.New("zwctrl: no controller command in progress")
)
