package zwdriver

import (
	"errors"
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwctrl"
	"github.com/OpenZWave/open-zwave-sub002/zwqueue"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

// ErrUnknownValue is returned by GetValue/SetValue for a ValueID never
// Create'd by a node's command classes.
var ErrUnknownValue = errors.New("zwdriver: unknown value")

// ErrUnknownNode is returned by operations naming a node not in the table.
var ErrUnknownNode = errors.New("zwdriver: unknown node")

// EnablePoll adds id to the poll set at the given intensity (once every
// intensity cycles), per the embedder API's EnablePoll.
func (d *Driver) EnablePoll(id zwvalue.ID, intensity int) {
	d.do(func(d *Driver) { d.Poll.Enable(id, intensity) })
}

// DisablePoll removes id from the poll set, per DisablePoll.
func (d *Driver) DisablePoll(id zwvalue.ID) {
	d.do(func(d *Driver) { d.Poll.Disable(id) })
}

// SetPollInterval changes the global poll interval, per SetPollInterval.
// Takes effect on the driver task's next tick without waiting for the
// current interval to elapse.
func (d *Driver) SetPollInterval(interval time.Duration) {
	d.do(func(d *Driver) { d.Poll.SetInterval(interval) })
	select {
	case d.pollReset <- interval:
	default:
	}
}

// GetValue returns the current value of id, per GetValue.
func (d *Driver) GetValue(id zwvalue.ID) (zwvalue.Value, error) {
	n, ok := d.Nodes.Get(id.NodeID)
	if !ok {
		return zwvalue.Value{}, ErrUnknownNode
	}
	v, ok := n.Store.Get(id)
	if !ok {
		return zwvalue.Value{}, ErrUnknownValue
	}
	return v, nil
}

// SetValue encodes and enqueues a SET for id, per SetValue. The class's
// SetValue builds the wire message; the Store only records the pending
// write, applied once the node's REPORT confirms it (§4.8).
func (d *Driver) SetValue(id zwvalue.ID, v zwvalue.Value) error {
	n, ok := d.Nodes.Get(id.NodeID)
	if !ok {
		return ErrUnknownNode
	}
	cc, ok := n.ClassByID(id.CommandClass)
	if !ok {
		return ErrUnknownValue
	}

	msg, err := cc.SetValue(id.Instance, id.NodeID, v)
	if err != nil {
		return &ClassifiedError{Kind: KindInvalidValue, Err: err}
	}
	if err := n.Store.SetPending(id, v); err != nil {
		return &ClassifiedError{Kind: KindInvalidValue, Err: err}
	}

	d.do(func(d *Driver) { d.Queue.Enqueue(zwqueue.Command, msg) })
	return nil
}

// BeginControllerCommand starts a network-management command, per §4.10 and
// the embedder API's BeginControllerCommand. The session's own Begin
// enforces "only one at a time"; the resulting message is submitted at
// Controller priority so it runs ahead of ordinary traffic and survives the
// Preempting() gate pump applies to every other band.
func (d *Driver) BeginControllerCommand(cmd zwctrl.ControllerCommand, nodeID uint8, highPower bool) error {
	var submitErr error
	d.do(func(d *Driver) {
		msg, err := d.Ctrl.Begin(cmd, nodeID, highPower, d.OwnNodeID())
		if err != nil {
			submitErr = err
			return
		}
		submitErr = d.submitControllerMessage(msg)
	})
	return submitErr
}

// CancelControllerCommand aborts whatever controller command is active, per
// CancelControllerCommand. Returns zwctrl.ErrNoActiveCommand if none is
// running.
func (d *Driver) CancelControllerCommand() error {
	var submitErr error
	d.do(func(d *Driver) {
		msg, err := d.Ctrl.Cancel()
		if err != nil {
			submitErr = err
			return
		}
		if msg == nil {
			return
		}
		submitErr = d.submitControllerMessage(msg)
	})
	return submitErr
}
