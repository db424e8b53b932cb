// Package zwtxn implements the single-in-flight transaction engine: it
// drives one outstanding request at a time across Idle/WaitingForAck/
// WaitingForResponse/WaitingForCallback, matching inbound ACK/response/
// callback frames against the head-of-line message and applying the
// retry/timeout policy.
package zwtxn

import (
	"errors"
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwframe"
	"github.com/OpenZWave/open-zwave-sub002/zwlog"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
)

// State is one of the four transaction states a Message moves through.
type State int

const (
	Idle State = iota
	WaitingForAck
	WaitingForResponse
	WaitingForCallback
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case WaitingForAck:
		return "WaitingForAck"
	case WaitingForResponse:
		return "WaitingForResponse"
	case WaitingForCallback:
		return "WaitingForCallback"
	default:
		return "Unknown"
	}
}

// Sentinel errors, checked with errors.Is by callers classifying failures
// into the §7 error kinds.
var (
	ErrTimeout   = errors.New("zwtxn: timeout")
	ErrNak       = errors.New("zwtxn: NAK")
	ErrCan       = errors.New("zwtxn: CAN")
	ErrCancelled = errors.New("zwtxn: cancelled")
	ErrRetries   = errors.New("zwtxn: retry budget exhausted")
)

// Default timeouts per §4.4/§7.
const (
	DefaultAckTimeout      = 1500 * time.Millisecond
	DefaultReplyTimeout    = 5 * time.Second
	DefaultRetryBudget     = 3
	firstCallbackID        = 10
	lastCallbackID         = 255
)

// Outcome is delivered to the message's completion channel once a
// transaction leaves the engine, successfully or not.
type Outcome struct {
	Response *zwframe.Frame // decoded RESPONSE frame, if one arrived
	Callback *zwframe.Frame // decoded REQUEST (callback) frame, if one arrived
	Err      error
}

// pending bundles a Message with the bookkeeping needed to drive it through
// the state machine and to notify whoever enqueued it.
type pending struct {
	msg       *zwmessage.Message
	retryMax  int
	ackTO     time.Duration
	replyTO   time.Duration
	done      chan Outcome
	response  *zwframe.Frame
}

// NoPreempt is implemented by controller-command sub-state-machines (zwctrl)
// that need to own the engine until they finish; while one reports true,
// Idle will not pull a new head-of-line message.
type NoPreempt interface {
	Preempting() bool
}

// Observer receives retry/timeout counts as the engine applies its retry
// policy. zwdriver wires a *zwmetrics.Metrics in via SetObserver; a nil
// observer (the default) means these calls are simply skipped.
type Observer interface {
	RecordRetry()
	RecordTimeout()
}

// CallbackAllocator hands out callback IDs per §4.4: a monotonic counter
// starting at 10 and wrapping past 255 back to 10.
type CallbackAllocator struct {
	next uint8
}

// NewCallbackAllocator returns an allocator primed to hand out 10 first.
func NewCallbackAllocator() *CallbackAllocator {
	return &CallbackAllocator{next: firstCallbackID}
}

// Next returns the next callback ID and advances the counter.
func (c *CallbackAllocator) Next() uint8 {
	if c.next < firstCallbackID || c.next > lastCallbackID {
		c.next = firstCallbackID
	}
	id := c.next
	if c.next == lastCallbackID {
		c.next = firstCallbackID
	} else {
		c.next++
	}
	return id
}

// Sender is the minimal Transport-side contract the engine needs: write a
// finalized frame's bytes out.
type Sender interface {
	Write(p []byte) (int, error)
}

// Engine is the C4 transaction engine. It owns no goroutine itself - the
// caller (zwdriver) drives it from a single select loop by calling Submit,
// OnControl, OnFrame and Tick, matching §4.4's "dedicated driver task" model.
type Engine struct {
	log       zwlog.Logger
	sender    Sender
	callbacks *CallbackAllocator
	preempt   NoPreempt
	observer  Observer

	state   State
	cur     *pending
	armedAt time.Time
	timeout time.Duration
}

// New constructs an Engine. logger and preempt may be nil; a nil preempt
// means controller commands never block ordinary enqueues.
func New(sender Sender, logger zwlog.Logger, preempt NoPreempt) *Engine {
	if logger == nil {
		logger = zwlog.Discard()
	}
	return &Engine{
		log:       logger,
		sender:    sender,
		callbacks: NewCallbackAllocator(),
		preempt:   preempt,
		state:     Idle,
	}
}

// SetObserver installs o as the engine's retry/timeout observer. Passing nil
// disables reporting, matching the metrics package's own nil-safe contract.
func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

// State reports the engine's current state, for diagnostics/tests.
func (e *Engine) State() State {
	return e.state
}

// Busy reports whether a transaction is in flight.
func (e *Engine) Busy() bool {
	return e.state != Idle
}

// Submit hands a message to the engine for transmission. If the engine is
// Idle and not preempted, it writes the message immediately and returns the
// outcome channel; the caller (the send queue) is responsible for calling
// Submit again with the next head-of-line message once the channel fires.
// If the engine is busy, Submit returns an error - callers must not call
// Submit while Busy() is true.
func (e *Engine) Submit(msg *zwmessage.Message) (<-chan Outcome, error) {
	if e.Busy() {
		return nil, errors.New("zwtxn: engine busy")
	}
	if e.preempt != nil && e.preempt.Preempting() {
		return nil, errors.New("zwtxn: engine preempted by a controller command")
	}

	retryMax := DefaultRetryBudget

	p := &pending{
		msg:      msg,
		retryMax: retryMax,
		ackTO:    DefaultAckTimeout,
		replyTO:  DefaultReplyTimeout,
		done:     make(chan Outcome, 1),
	}

	if msg.ExpectCallback {
		msg.AssignCallbackID(e.callbacks.Next())
	}

	if err := e.send(p); err != nil {
		p.done <- Outcome{Err: err}
		return p.done, nil
	}

	e.cur = p
	e.state = WaitingForAck
	e.arm(p.ackTO)
	return p.done, nil
}

func (e *Engine) send(p *pending) error {
	buf, err := p.msg.Finalize()
	if err != nil {
		return err
	}
	p.msg.MarkSent()
	_, err = e.sender.Write(buf)
	if err != nil {
		e.log.Errorf("zwtxn: write failed: %v", err)
	}
	return err
}

func (e *Engine) arm(d time.Duration) {
	e.armedAt = time.Now()
	e.timeout = d
}

// Deadline returns when the current wait expires, and whether one is armed.
func (e *Engine) Deadline() (time.Time, bool) {
	if e.cur == nil {
		return time.Time{}, false
	}
	return e.armedAt.Add(e.timeout), true
}

// OnControl feeds an ACK/NAK/CAN control byte event into the state machine.
func (e *Engine) OnControl(ev zwframe.Event) {
	if e.cur == nil || e.state != WaitingForAck {
		return
	}
	switch ev.Control {
	case zwframe.ControlACK:
		e.onAck()
	case zwframe.ControlNAK:
		e.retry(ErrNak)
	case zwframe.ControlCAN:
		e.retry(ErrCan)
	}
}

func (e *Engine) onAck() {
	p := e.cur
	msg := p.msg

	needsResponse := msg.Expect.HasFunc
	needsCallback := msg.ExpectCallback

	switch {
	case !needsResponse && !needsCallback:
		e.complete(Outcome{})
	case needsResponse:
		e.state = WaitingForResponse
		e.arm(p.replyTO)
	default:
		e.state = WaitingForCallback
		e.arm(p.replyTO)
	}
}

// OnFrame feeds a decoded RESPONSE or REQUEST frame into the state machine.
// It reports whether the frame was consumed as this transaction's expected
// reply/callback; an unconsumed frame should be dispatched to the node
// layer per §4.7.
func (e *Engine) OnFrame(frame *zwframe.Frame) bool {
	if e.cur == nil {
		return false
	}
	msg := e.cur.msg

	switch e.state {
	case WaitingForResponse:
		if frame.Type != zwframe.TypeResponse || !e.matchesFunc(msg, frame) {
			return false
		}
		e.cur.response = frame
		if msg.ExpectCallback {
			e.state = WaitingForCallback
			e.arm(e.cur.replyTO)
		} else {
			e.complete(Outcome{Response: frame})
		}
		return true

	case WaitingForCallback:
		if frame.Type != zwframe.TypeRequest || !e.matchesFunc(msg, frame) {
			return false
		}
		if len(frame.Payload) == 0 {
			return false
		}
		id, ok := msg.CallbackID()
		if !ok || frame.Payload[len(frame.Payload)-1] != id {
			return false
		}
		e.complete(Outcome{Response: e.cur.response, Callback: frame})
		return true
	}

	return false
}

func (e *Engine) matchesFunc(msg *zwmessage.Message, frame *zwframe.Frame) bool {
	if msg.Expect.HasFunc && frame.Func != msg.Expect.FuncCode {
		return false
	}
	if msg.Expect.HasClass {
		if len(frame.Payload) == 0 || frame.Payload[0] != msg.Expect.CommandClass {
			return false
		}
	}
	return true
}

// Tick should be called periodically (or right before blocking) so the
// engine can notice an expired deadline and apply the retry/timeout policy.
// It reports whether a timeout fired.
func (e *Engine) Tick(now time.Time) bool {
	if e.cur == nil {
		return false
	}
	if now.Before(e.armedAt.Add(e.timeout)) {
		return false
	}
	e.retry(ErrTimeout)
	return true
}

// retry re-sends the current message (same callback ID) if the attempt
// budget allows, otherwise fails the transaction.
func (e *Engine) retry(cause error) {
	if e.observer != nil && errors.Is(cause, ErrTimeout) {
		e.observer.RecordTimeout()
	}

	p := e.cur
	if p.msg.SendAttempts() >= p.retryMax {
		e.complete(Outcome{Err: ErrRetries})
		return
	}

	if err := e.send(p); err != nil {
		e.complete(Outcome{Err: err})
		return
	}

	if e.observer != nil {
		e.observer.RecordRetry()
	}

	e.state = WaitingForAck
	e.arm(p.ackTO)
	e.log.Debugf("zwtxn: retry after %v, attempt %d", cause, p.msg.SendAttempts())
}

func (e *Engine) complete(o Outcome) {
	p := e.cur
	e.cur = nil
	e.state = Idle
	p.done <- o
}

// Cancel aborts the in-flight transaction (if any), e.g. on transport
// close, delivering ErrCancelled to the waiter.
func (e *Engine) Cancel() {
	if e.cur == nil {
		return
	}
	e.complete(Outcome{Err: ErrCancelled})
}
