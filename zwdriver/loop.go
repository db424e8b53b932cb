package zwdriver

import (
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
	"github.com/OpenZWave/open-zwave-sub002/zwpoll"
	"github.com/OpenZWave/open-zwave-sub002/zwqueue"
	"github.com/OpenZWave/open-zwave-sub002/zwtxn"
)

// engineTickInterval drives retry/timeout checking, independent of the poll
// scheduler's own (much longer) interval.
const engineTickInterval = 50 * time.Millisecond

// run is the sole driver task: every mutation of Engine, Queue, Nodes, Ctrl
// and completion happens here, either directly (inbox/outcome/tick) or via a
// command handed over by do (§5's single-mutator rule). It runs the
// Initialize handshake first - on this same goroutine, so initialize's own
// private inbox-reading loop (blockingSubmit, in bootstrap.go) never
// competes with the select loop below for the same channel - then reports
// the result on initResult before falling into steady-state operation.
// Exits when exit fires, or immediately if Initialize failed.
func (d *Driver) run(initResult chan<- error) {
	defer close(d.stopped)

	if err := d.initialize(); err != nil {
		initResult <- err
		return
	}
	initResult <- nil

	engineTicker := time.NewTicker(engineTickInterval)
	defer engineTicker.Stop()
	pollTicker := time.NewTicker(d.Poll.Interval())
	defer func() { pollTicker.Stop() }()

	for {
		d.pump()
		d.reportQueueDepth()

		select {
		case ev := <-d.inbox:
			d.handleEvent(ev)
			d.Bus.Drain()

		case c := <-d.cmds:
			c.fn(d)
			close(c.done)
			d.Bus.Drain()

		case now := <-engineTicker.C:
			d.Engine.Tick(now)
			d.Bus.Drain()

		case <-pollTicker.C:
			d.tickPoll()
			d.Bus.Drain()

		case interval := <-d.pollReset:
			pollTicker.Stop()
			pollTicker = time.NewTicker(interval)

		case o := <-d.outcome:
			d.onOutcome(o)
			d.Bus.Drain()

		case <-d.exit:
			d.Engine.Cancel()
			d.Bus.Post(zwnotify.Notification{Type: zwnotify.DriverRemoved})
			d.Bus.Drain()
			return
		}
	}
}

// pump submits the next queued message once the engine is free to accept
// one. Nothing in this package enqueues at Controller priority:
// BeginControllerCommand, CancelControllerCommand and Result.Next chaining
// all call submitControllerMessage directly. A Controller-priority message
// that does reach the queue is routed through submitControllerMessage's
// ExpectCallback-stripping logic; everything else goes straight to Submit.
//
// A controller command's own Preempting() is already true by the time its
// Begin message would be enqueued, so ordinary (non-Controller) messages are
// held back until it clears - but the Controller band itself is exempt from
// that check, or the command could never start.
func (d *Driver) pump() {
	if d.outcome != nil || d.Engine.Busy() {
		return
	}

	msg, priority, ok := d.Queue.Dequeue()
	if !ok {
		return
	}

	if priority != zwqueue.Controller && d.Ctrl.Preempting() {
		d.Queue.Enqueue(priority, msg)
		return
	}

	if priority == zwqueue.Controller {
		if err := d.submitControllerMessage(msg); err != nil {
			d.log.Errorf("zwdriver: submitting controller message: %v", err)
		}
		return
	}

	outcome, err := d.Engine.Submit(msg)
	if err != nil {
		d.log.Errorf("zwdriver: submit failed: %v", err)
		return
	}
	d.outcome = outcome
	d.outcomeMsg = msg
	d.outcomePriority = priority
}

// tickPoll asks the poll scheduler which values are due and enqueues a GET
// for each, per §4.11.
func (d *Driver) tickPoll() {
	due := d.Poll.Tick()
	if len(due) == 0 {
		return
	}
	d.cfg.Metrics.IncPollTick()
	for _, m := range zwpoll.BuildMessages(due, d.Nodes) {
		d.Queue.Enqueue(zwqueue.Poll, m)
	}
}

// reportQueueDepth refreshes the per-band queue-depth gauge. Cheap enough to
// call every loop iteration: BandLen takes the queue's mutex but does no
// allocation.
func (d *Driver) reportQueueDepth() {
	for _, p := range []zwqueue.Priority{zwqueue.Controller, zwqueue.WakeUp, zwqueue.Command, zwqueue.Query, zwqueue.Poll} {
		d.cfg.Metrics.SetQueueDepth(p.String(), d.Queue.BandLen(p))
	}
}

// onOutcome consumes the single in-flight Engine transaction's result,
// dispatching it to the controller-command path or the ordinary query/
// command path depending on which priority band it was submitted under.
func (d *Driver) onOutcome(o zwtxn.Outcome) {
	msg := d.outcomeMsg
	priority := d.outcomePriority
	d.outcome = nil
	d.outcomeMsg = nil

	if priority == zwqueue.Controller {
		d.onControllerOutcome(msg, o)
		return
	}

	if o.Err != nil {
		d.onMessageFailure(msg, o.Err)
	}

	if priority == zwqueue.Query {
		d.onQueryMessageOutcome(msg.TargetNode, o)
	}
}

// onControllerOutcome applies a controller-command message's Engine
// outcome: a Response frame (the only funcs that carry one are
// IsFailedNodeID/RemoveFailedNodeID/ReplaceFailedNodeID, per
// zwctrl.Session.OnResponse's doc) is handed to OnResponse; anything else -
// including messages answered entirely by the later REQUEST-frame progress
// sequence handleControllerFrame matches - needs no further action here.
func (d *Driver) onControllerOutcome(msg *zwmessage.Message, o zwtxn.Outcome) {
	if o.Err != nil {
		d.ctrlCallbackActive = false
		d.Bus.Post(zwnotify.Notification{Type: zwnotify.ControllerState, Err: &ClassifiedError{Kind: classify(o.Err), Err: o.Err}})
		return
	}
	if o.Response != nil {
		result := d.Ctrl.OnResponse(msg.Function, o.Response.Payload)
		d.applyControllerResult(result)
	}
}

// onMessageFailure applies §4.4: a non-listening node whose transaction
// failed outright (ack/response/callback timeout exhausted its retry
// budget) is presumed asleep, and its remaining queued traffic is diverted
// to the wake-up queue.
func (d *Driver) onMessageFailure(msg *zwmessage.Message, err error) {
	nodeID := msg.TargetNode
	if n, ok := d.Nodes.Get(nodeID); ok && !n.Listening {
		d.Queue.SleepNode(nodeID, zwcc.IsWakeUpNoMoreInformation)
	}
	d.Bus.Post(zwnotify.Notification{Type: zwnotify.NotificationGeneric, NodeID: nodeID, Err: &ClassifiedError{Kind: classify(err), Err: err}})
}
