package zwdriver

import (
	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwctrl"
	"github.com/OpenZWave/open-zwave-sub002/zwframe"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwnode"
	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
	"github.com/OpenZWave/open-zwave-sub002/zwqueue"
)

// controllerPreempt adapts zwctrl.Session to zwtxn.NoPreempt for the one
// caller (the driver task) that must be allowed through Session's own
// preempt signal: Session.Begin sets its internal "active" flag before
// returning the message the caller must then Submit, so a literal
// Engine.Submit of that very message would otherwise be rejected by the
// same Preempting() check it exists to enforce against everyone else.
// submittingOwn is set only around that one Submit call, on the driver
// task, never touching zwctrl or zwtxn themselves.
type controllerPreempt struct {
	ctrl          *zwctrl.Session
	submittingOwn bool
}

func (p *controllerPreempt) Preempting() bool {
	if p.submittingOwn {
		return false
	}
	return p.ctrl.Preempting()
}

// isControllerFunc reports whether funcID is one of the network-management
// function IDs a zwctrl.Session callback sequence reports progress over
// (§4.10), the set handleFrame must intercept before offering a REQUEST
// frame to the transaction engine.
func isControllerFunc(funcID uint8) bool {
	switch funcID {
	case zwmessage.FuncAddNodeToNetwork,
		zwmessage.FuncRemoveNodeFromNetwork,
		zwmessage.FuncCreateNewPrimary,
		zwmessage.FuncSetLearnMode,
		zwmessage.FuncControllerChange,
		zwmessage.FuncRemoveFailedNodeID,
		zwmessage.FuncReplaceFailedNodeID,
		zwmessage.FuncRequestNetworkUpdate,
		zwmessage.FuncRequestNodeNeighborUpdate,
		zwmessage.FuncAssignReturnRoute,
		zwmessage.FuncDeleteReturnRoute:
		return true
	}
	return false
}

// submitControllerMessage hands msg (built by zwctrl.Session.Begin/Cancel,
// or chained via a Result.Next) to the engine at Controller priority.
//
// Virtually every such message sets ExpectCallback, representing an
// open-ended multi-frame progress sequence (§4.10) rather than the single
// callback zwtxn's engine is built to wait out. So instead of letting the
// engine hold the transaction open across that whole sequence, this
// allocates a callback ID from the driver's own allocator (distinct from
// the engine's private one), appends it to the wire payload by hand, then
// clears ExpectCallback so Submit's transaction completes as soon as the
// ACK/RESPONSE arrives. Every subsequent progress frame is then matched and
// routed by handleControllerFrame, entirely outside the engine.
func (d *Driver) submitControllerMessage(msg *zwmessage.Message) error {
	if msg.ExpectCallback {
		id := d.ctrlCallbacks.Next()
		msg.AppendByte(id)
		msg.ExpectCallback = false
		d.ctrlCallbackID = id
		d.ctrlCallbackFunc = msg.Function
		d.ctrlCallbackActive = true
	} else {
		d.ctrlCallbackActive = false
	}

	d.ctrlPreempt.submittingOwn = true
	outcome, err := d.Engine.Submit(msg)
	d.ctrlPreempt.submittingOwn = false
	if err != nil {
		d.ctrlCallbackActive = false
		return err
	}

	d.outcome = outcome
	d.outcomeMsg = msg
	d.outcomePriority = zwqueue.Controller
	return nil
}

// applyControllerResult acts on a zwctrl.Result: chains a follow-up message
// if one is called for, and clears the callback-matching state once the
// command has finished. Session's own report/finishLocked already post the
// ControllerState notification, so there is nothing left to notify here.
func (d *Driver) applyControllerResult(result zwctrl.Result) {
	if result.Finished {
		d.ctrlCallbackActive = false
	}
	if result.Next != nil {
		if err := d.submitControllerMessage(result.Next); err != nil {
			d.log.Errorf("zwdriver: submitting controller follow-up message: %v", err)
		}
	}
}

// handleEvent processes one decoded zwframe.Event off the reader task's
// inbox: a malformed leading byte or checksum failure gets a NAK written
// back, a control byte feeds the engine's ACK/NAK/CAN handling, and a
// complete frame is ACKed immediately (per the teacher's "ACK back to SOF
// messages" rule) before being routed.
func (d *Driver) handleEvent(ev zwframe.Event) {
	switch {
	case ev.NAK:
		if _, err := d.transport.Write(zwframe.EncodeControl(zwframe.ControlNAK)); err != nil {
			d.log.Errorf("zwdriver: writing NAK: %v", err)
		}
	case ev.Control != 0:
		d.Engine.OnControl(ev)
	case ev.Frame != nil:
		if _, err := d.transport.Write(zwframe.EncodeControl(zwframe.ControlACK)); err != nil {
			d.log.Errorf("zwdriver: writing ACK: %v", err)
		}
		d.handleFrame(ev.Frame)
	}
}

// handleFrame routes one complete inbound frame: a controller-callback
// match is checked first (before the frame is ever offered to the engine,
// since the engine's own Submit-level transaction for that command was
// already completed by submitControllerMessage); failing that, the engine
// gets first refusal as the expected response/callback of whatever it has
// in flight; anything left unconsumed is an unsolicited application frame.
func (d *Driver) handleFrame(frame *zwframe.Frame) {
	if frame.Type == zwframe.TypeRequest && d.ctrlCallbackActive && isControllerFunc(frame.Func) &&
		len(frame.Payload) > 0 && frame.Payload[len(frame.Payload)-1] == d.ctrlCallbackID {
		d.handleControllerFrame(frame)
		return
	}

	if d.Engine.OnFrame(frame) {
		return
	}

	switch frame.Func {
	case zwmessage.FuncApplicationCommandHandler:
		d.handleApplicationCommand(frame)
	case zwmessage.FuncApplicationUpdate:
		d.handleApplicationUpdate(frame)
	default:
		d.log.Debugf("zwdriver: unhandled frame func=0x%02x type=%d", frame.Func, frame.Type)
	}
}

// handleControllerFrame reorders an inbound progress frame's payload to
// match zwctrl.Session.OnRequest's expectation (callback ID first, status
// second): the engine's own Finalize/OnFrame convention puts the callback
// ID last (driven by how outbound messages are framed), but the real
// controller-command callback vocabulary - and OnRequest's contract - place
// it first, so the bytes are rearranged once here rather than changing
// either already-tested package's convention.
func (d *Driver) handleControllerFrame(frame *zwframe.Frame) {
	last := len(frame.Payload) - 1
	reordered := make([]byte, 0, len(frame.Payload))
	reordered = append(reordered, frame.Payload[last])
	reordered = append(reordered, frame.Payload[:last]...)

	result := d.Ctrl.OnRequest(frame.Func, reordered)
	d.applyControllerResult(result)
}

// handleApplicationCommand processes an unsolicited ApplicationCommandHandler
// frame, grounded on the teacher's ApplicationCommandHandlerResponse layout:
// [status, nodeID, length, classID, command, params...]. A WakeUp
// Notification is intercepted here (rather than inside zwcc.WakeUpClass,
// which only recognizes the frame) to drive the send queue's wake-up drain,
// per §4.5; the frame is then handed to the node for ordinary dispatch.
func (d *Driver) handleApplicationCommand(frame *zwframe.Frame) {
	if len(frame.Payload) < 3 {
		d.log.Warnf("zwdriver: ApplicationCommandHandler frame too short")
		return
	}
	nodeID := frame.Payload[1]
	length := int(frame.Payload[2])
	data := frame.Payload[3:]
	if len(data) != length {
		d.log.Warnf("zwdriver: ApplicationCommandHandler length mismatch: declared %d, got %d", length, len(data))
		return
	}
	if len(data) == 0 {
		return
	}

	node, ok := d.Nodes.Get(nodeID)
	if !ok {
		d.log.Debugf("zwdriver: ApplicationCommandHandler for unknown node %d", nodeID)
		return
	}

	classID := data[0]
	cmdBody := data[1:]

	if classID == zwcc.ClassWakeUp && zwcc.IsWakeUpNotification(cmdBody) {
		node.SetAwake(true)
		d.Queue.WakeNode(nodeID, zwcc.NoMoreInformation(nodeID))
	}

	if err := node.Dispatch(classID, cmdBody, d.Bus); err != nil {
		d.Bus.Post(zwnotify.Notification{Type: zwnotify.NotificationGeneric, NodeID: nodeID, Err: &ClassifiedError{Kind: KindProtocolError, Err: err}})
	}
}

// handleApplicationUpdate processes an unsolicited ApplicationUpdate frame.
// A NodeInfo status delivers the node's NIF (§4.6's NodeInfo/NodePlusInfo
// stage is waiting on exactly this); any other status is logged and
// dropped, matching the teacher's narrow handling of ZWApplicationUpdate.
func (d *Driver) handleApplicationUpdate(frame *zwframe.Frame) {
	if len(frame.Payload) < 3 {
		d.log.Warnf("zwdriver: ApplicationUpdate frame too short")
		return
	}
	status := frame.Payload[0]
	nodeID := frame.Payload[1]
	length := int(frame.Payload[2])
	data := frame.Payload[3:]
	if len(data) != length {
		d.log.Warnf("zwdriver: ApplicationUpdate length mismatch: declared %d, got %d", length, len(data))
		return
	}

	if status != zwnode.ApplicationUpdateStateNodeInfo {
		d.log.Debugf("zwdriver: ApplicationUpdate status 0x%02x for node %d, dropped", status, nodeID)
		return
	}

	node, ok := d.Nodes.Get(nodeID)
	if !ok {
		return
	}
	if err := zwnode.ApplyNodeInfo(node, data); err != nil {
		d.log.Errorf("zwdriver: ApplyNodeInfo for node %d: %v", nodeID, err)
		return
	}
	node.ReplayBuffered(d.Bus)
	d.onQueryOutcome(nodeID, true)
}
