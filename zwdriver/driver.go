// Package zwdriver implements the top-level Driver object: it owns the
// Transport, the transaction engine, the send queue, the node table, the
// notification bus, the poll scheduler and the controller-command session,
// and wires them together per §5's driver/reader/poll task model. Grounded
// on the teacher's api.ZWAPI (Open/Close/Initialize/defaultHandler),
// generalized from a single blocking goroutine into the full state machine
// spec.md's concurrency model describes.
package zwdriver

import (
	"errors"
	"sync"
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwctrl"
	"github.com/OpenZWave/open-zwave-sub002/zwframe"
	"github.com/OpenZWave/open-zwave-sub002/zwlog"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwmetrics"
	"github.com/OpenZWave/open-zwave-sub002/zwnode"
	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
	"github.com/OpenZWave/open-zwave-sub002/zwpersist"
	"github.com/OpenZWave/open-zwave-sub002/zwpoll"
	"github.com/OpenZWave/open-zwave-sub002/zwqueue"
	"github.com/OpenZWave/open-zwave-sub002/zwserial"
	"github.com/OpenZWave/open-zwave-sub002/zwtxn"
)

// Config is the immutable-once-open set of driver parameters. Validated,
// richer configuration (security key, path prefixes, etc.) lives in
// zwconfig.Options; Config here carries only what zwdriver itself consumes.
type Config struct {
	DevicePath    string
	Baud          int
	Verbose       bool
	PollInterval  time.Duration
	RetryBudget   int
	NodeDeadAfter int // consecutive stage timeouts before a node is marked Dead, default 3

	// StatePath is the persisted-state file's path (zwpersist.Document,
	// JSON-serialized). Empty disables persistence entirely: Open skips the
	// restore step and Close skips the save step.
	StatePath string

	// Metrics, if non-nil, receives transaction retry/timeout counts, queue
	// depth per band, poll-tick counts, and failed-node gauges. Nil disables
	// metrics collection entirely (the zero-overhead default).
	Metrics *zwmetrics.Metrics
}

// DefaultNodeDeadAfter matches §5's "node-dead detection after N consecutive
// timeouts (default 3)".
const DefaultNodeDeadAfter = 3

// ErrNotOpen is returned by operations that require an open driver.
var ErrNotOpen = errors.New("zwdriver: driver not open")

// ErrAlreadyOpen is returned by Open when the driver is already running.
var ErrAlreadyOpen = errors.New("zwdriver: driver already open")

// errCancelled is returned by blockingSubmit (and anything else waiting on
// an Engine outcome) when Close fires before the wait completes.
var errCancelled = errors.New("zwdriver: operation cancelled by close")

// command is a closure executed on the driver task goroutine, the Go
// rendition of "only the driver task mutates the node table/queue/engine":
// every embedder-facing method that touches that state builds one of these
// and hands it to the loop instead of touching the state directly.
type command struct {
	fn   func(*Driver)
	done chan struct{}
}

// Driver is the C1-C11 assembly spec.md §2/§5 describes for one Serial API
// controller. Exactly one goroutine (run, in loop.go) ever mutates engine,
// queue, nodes, ctrl or completion; everything else reaches that state
// through the cmds channel.
type Driver struct {
	cfg       Config
	log       zwlog.Logger
	transport zwserial.Transport

	mutex     sync.RWMutex // guards homeID/ownNodeID/ready, set once during Initialize
	homeID    uint32
	ownNodeID uint8
	ready     bool

	Engine *zwtxn.Engine
	Queue  *zwqueue.Queue
	Nodes  *zwnode.Table
	Bus    *zwnotify.Bus
	Poll   *zwpoll.Scheduler
	Ctrl   *zwctrl.Session

	completion zwnode.CompletionTracker

	// ctrlPreempt wraps Ctrl for the engine's NoPreempt hook; it lets the
	// driver task bypass Ctrl's own Preempting signal for the one Submit
	// call that carries the controller session's own Begin/Cancel/Next
	// message (see controllerPreempt in dispatch.go).
	ctrlPreempt        *controllerPreempt
	ctrlCallbacks      *zwtxn.CallbackAllocator
	ctrlCallbackID     uint8
	ctrlCallbackFunc   uint8
	ctrlCallbackActive bool

	// outcome tracks whichever single Engine transaction is presently in
	// flight, ordinary queue traffic or a controller-command message; nil
	// when the engine is idle and pump may dequeue the next message.
	outcome         <-chan zwtxn.Outcome
	outcomeMsg      *zwmessage.Message
	outcomePriority zwqueue.Priority

	// progress tracks each node's outstanding query-stage message count, so
	// FinishStage fires exactly once per stage even when BeginStage issued
	// several messages for it (query.go).
	progress map[uint8]*nodeProgress
	// nodeTimeouts counts consecutive stage-budget exhaustions per node,
	// per §5's "node-dead detection after N consecutive timeouts".
	nodeTimeouts map[uint8]int

	decoder   zwframe.Decoder
	inbox     chan zwframe.Event
	cmds      chan command
	pollReset chan time.Duration
	exit      chan struct{}
	stopped   chan struct{}

	started bool
}

// New constructs a Driver against transport, not yet open. logger may be
// nil (defaults to zwlog.Discard()).
func New(cfg Config, transport zwserial.Transport, logger zwlog.Logger) *Driver {
	if logger == nil {
		logger = zwlog.Discard()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = zwpoll.DefaultInterval
	}
	if cfg.NodeDeadAfter <= 0 {
		cfg.NodeDeadAfter = DefaultNodeDeadAfter
	}
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = zwtxn.DefaultRetryBudget
	}

	d := &Driver{
		cfg:           cfg,
		log:           logger,
		transport:     transport,
		Queue:         zwqueue.New(),
		Nodes:         zwnode.NewTable(),
		Poll:          zwpoll.New(cfg.PollInterval),
		ctrlCallbacks: zwtxn.NewCallbackAllocator(),
		progress:      make(map[uint8]*nodeProgress),
		nodeTimeouts:  make(map[uint8]int),
		inbox:         make(chan zwframe.Event, 64),
		cmds:          make(chan command),
		pollReset:     make(chan time.Duration, 1),
		exit:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	d.Bus = zwnotify.NewBus(func(msg string) { d.log.Warnf("zwdriver: %s", msg) })
	d.Ctrl = zwctrl.NewSession(d.Bus)
	d.ctrlPreempt = &controllerPreempt{ctrl: d.Ctrl}
	d.Engine = zwtxn.New(transport, logger, d.ctrlPreempt)
	d.Engine.SetObserver(cfg.Metrics)
	return d
}

// IsReady reports whether Initialize has completed successfully, per the
// embedder API's is_ready().
func (d *Driver) IsReady() bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.ready
}

// HomeID returns the network's HomeID, valid once IsReady is true.
func (d *Driver) HomeID() uint32 {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.homeID
}

// OwnNodeID returns the controller's own node ID, valid once IsReady is true.
func (d *Driver) OwnNodeID() uint8 {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.ownNodeID
}

func (d *Driver) setReady(homeID uint32, ownNodeID uint8) {
	d.mutex.Lock()
	d.ready = true
	d.homeID = homeID
	d.ownNodeID = ownNodeID
	d.mutex.Unlock()
	d.Queue.MarkListening(ownNodeID)
}

// Open opens the transport, starts the reader task, and starts the driver
// task - which itself runs the Initialize handshake before entering its
// main loop, so the handshake and steady-state operation share a single
// consumer of inbox - per the teacher's Open()+Initialize() split
// (api.ZWAPI.Open starts the handler goroutine; Initialize then runs the
// capability/version/memory/init-data sequence over it).
func (d *Driver) Open() error {
	if d.started {
		return ErrAlreadyOpen
	}

	if err := d.transport.Open(d.cfg.DevicePath, d.cfg.Baud, zwserial.ParityNone, zwserial.DefaultStopBits); err != nil {
		return err
	}

	d.started = true
	initResult := make(chan error, 1)
	go d.readLoop()
	go d.run(initResult)

	if err := <-initResult; err != nil {
		close(d.exit)
		<-d.stopped
		d.transport.Close()
		d.started = false
		return err
	}
	return nil
}

// Close snapshots and saves persisted state (if cfg.StatePath is set),
// signals the exit event, waits for the driver task to unwind, and closes
// the transport, per §5's cancellation rule: "drains no further work,
// writes config, closes Transport, and returns. ... the embedder sees
// DriverRemoved."
func (d *Driver) Close() error {
	if !d.started {
		return nil
	}
	if d.cfg.StatePath != "" {
		doc := zwpersist.Snapshot(d.HomeID(), d.OwnNodeID(), d.Nodes.All())
		if err := zwpersist.Save(d.cfg.StatePath, doc, zwpersist.JSONSerializer{}); err != nil {
			d.log.Warnf("zwdriver: saving persisted state to %s: %v", d.cfg.StatePath, err)
		}
	}
	close(d.exit)
	<-d.stopped
	d.started = false
	return d.transport.Close()
}

// AddWatcher registers a notification watcher, per the embedder API's
// add_watcher(callback).
func (d *Driver) AddWatcher(w zwnotify.Watcher) zwnotify.WatcherHandle {
	return d.Bus.AddWatcher(w)
}

// RemoveWatcher unregisters a watcher, per remove_watcher(callback).
func (d *Driver) RemoveWatcher(h zwnotify.WatcherHandle) {
	d.Bus.RemoveWatcher(h)
}

// GetNode returns a discovered node, if any.
func (d *Driver) GetNode(nodeID uint8) (*zwnode.Node, bool) {
	return d.Nodes.Get(nodeID)
}

// AllNodes returns a snapshot of every discovered node.
func (d *Driver) AllNodes() []*zwnode.Node {
	return d.Nodes.All()
}

// do runs fn on the driver task and blocks until it has run, the mechanism
// every embedder-facing mutation uses to respect "the driver task is the
// only mutator" without every caller needing its own lock.
func (d *Driver) do(fn func(*Driver)) {
	c := command{fn: fn, done: make(chan struct{})}
	select {
	case d.cmds <- c:
		<-c.done
	case <-d.stopped:
	}
}
