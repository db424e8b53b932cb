package zwctrl

import (
	"testing"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
)

func TestBeginRejectsConcurrentCommand(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.Begin(CommandAddDevice, 0, false, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Begin(CommandAddController, 0, false, 1); err != ErrBusy {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestAddDeviceHappyPath(t *testing.T) {
	s := NewSession(nil)
	msg, err := s.Begin(CommandAddDevice, 0, false, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Function != zwmessage.FuncAddNodeToNetwork {
		t.Fatalf("expected AddNodeToNetwork, got 0x%02x", msg.Function)
	}

	// LEARN_READY
	res := s.OnRequest(zwmessage.FuncAddNodeToNetwork, []byte{10, addNodeStatusLearnReady})
	if !res.HasState || res.State != StateWaiting {
		t.Fatalf("expected Waiting, got %+v", res)
	}

	// NODE_FOUND
	res = s.OnRequest(zwmessage.FuncAddNodeToNetwork, []byte{10, addNodeStatusNodeFound})
	if !res.HasState || res.State != StateInProgress {
		t.Fatalf("expected InProgress, got %+v", res)
	}

	// ADDING_SLAVE, node 7
	res = s.OnRequest(zwmessage.FuncAddNodeToNetwork, []byte{10, addNodeStatusAddingSlave, 7})
	if res.Finished {
		t.Fatalf("should not finish on AddingSlave")
	}
	if s.CommandNode() != 7 {
		t.Fatalf("expected commandNode 7, got %d", s.CommandNode())
	}

	// PROTOCOL_DONE must yield a stop message, command still active
	res = s.OnRequest(zwmessage.FuncAddNodeToNetwork, []byte{10, addNodeStatusProtocolDone})
	if res.Next == nil || res.Next.Function != zwmessage.FuncAddNodeToNetwork {
		t.Fatalf("expected an AddNodeToNetwork stop message, got %+v", res)
	}
	if _, active := s.Active(); !active {
		t.Fatalf("session should still be active after ProtocolDone")
	}

	// DONE
	res = s.OnRequest(zwmessage.FuncAddNodeToNetwork, []byte{10, addNodeStatusDone})
	if !res.Finished || res.State != StateCompleted {
		t.Fatalf("expected Completed+Finished, got %+v", res)
	}
	if _, active := s.Active(); active {
		t.Fatalf("session should be inactive after Done")
	}
}

func TestCancelNotAllowedForFailedNodeCommands(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.Begin(CommandRemoveFailedNode, 9, false, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Cancel(); err != ErrNotCancellable {
		t.Fatalf("expected ErrNotCancellable, got %v", err)
	}
	if _, active := s.Active(); !active {
		t.Fatalf("a rejected cancel must leave the command active")
	}
}

func TestCancelAddDeviceSendsStop(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.Begin(CommandAddDevice, 0, false, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, err := s.Cancel()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Function != zwmessage.FuncAddNodeToNetwork {
		t.Fatalf("expected AddNodeToNetwork stop, got 0x%02x", msg.Function)
	}
	if _, active := s.Active(); active {
		t.Fatalf("expected session inactive after cancel")
	}
}

func TestHasNodeFailedCompletesOnResponse(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.Begin(CommandHasNodeFailed, 12, false, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := s.OnResponse(zwmessage.FuncIsFailedNodeID, []byte{1})
	if !res.Finished || res.State != StateNodeFailed {
		t.Fatalf("expected NodeFailed+Finished, got %+v", res)
	}
}

func TestRequestNetworkUpdateCompletesOnCallback(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.Begin(CommandRequestNetworkUpdate, 0, false, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := s.OnRequest(zwmessage.FuncRequestNetworkUpdate, []byte{10, sucUpdateDone})
	if !res.Finished || res.State != StateCompleted {
		t.Fatalf("expected Completed+Finished, got %+v", res)
	}
}
