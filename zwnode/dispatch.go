package zwnode

import (
	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
)

// maxBufferedFrames bounds the per-node buffer of application frames that
// arrive for a class not yet created (still mid-discovery); §4.7's dispatch
// rule 3 requires this bounded, with the oldest entry dropped on overflow.
const maxBufferedFrames = 16

type bufferedFrame struct {
	classID  uint8
	instance uint8
	body     []byte
}

// pendingBuffer holds frames addressed to a class the node's NodeInfo stage
// hasn't installed yet. Not exported: only Dispatch touches it.
type pendingBuffer struct {
	frames []bufferedFrame
}

func (n *Node) bufferFrame(classID, instance uint8, body []byte) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	if n.buffer.frames == nil {
		n.buffer.frames = make([]bufferedFrame, 0, maxBufferedFrames)
	}
	if len(n.buffer.frames) >= maxBufferedFrames {
		n.buffer.frames = n.buffer.frames[1:]
	}
	n.buffer.frames = append(n.buffer.frames, bufferedFrame{classID: classID, instance: instance, body: body})
}

// Dispatch implements §4.7's dispatch rule for a single ApplicationCommand
// frame already addressed to this node: unwrap any encapsulation envelope,
// then route each resulting sub-frame to its command class. bus, if
// non-nil, receives ValueChanged/ValueRefreshed notifications surfaced by
// zwvalue.Store's commit callback (wired by the caller via Node.Store's
// onChange, not here) plus a NotificationGeneric for frames delivered to a
// controlled-only class.
func (n *Node) Dispatch(classID uint8, body []byte, bus *zwnotify.Bus) error {
	frames, err := zwcc.Unwrap(classID, body)
	for _, f := range frames {
		n.dispatchSubFrame(f, bus)
	}
	return err
}

func (n *Node) dispatchSubFrame(f zwcc.SubFrame, bus *zwnotify.Bus) {
	n.mutex.RLock()
	cc, supported := n.Supported[f.ClassID]
	controlled := n.Controlled[f.ClassID]
	store := n.Store
	stage := n.stage
	n.mutex.RUnlock()

	instance := f.Instance
	if instance == 0 {
		instance = 1
	}

	switch {
	case supported:
		if _, err := cc.HandleMsg(f.Body, instance, n.ID, store); err != nil && bus != nil {
			bus.Post(zwnotify.Notification{Type: zwnotify.NotificationGeneric, NodeID: n.ID, Err: err})
		}
		if f.ClassID == zwcc.ClassVersion {
			if classID, version, ok := zwcc.ParseVersionCommandClassReport(f.Body); ok {
				n.mutex.Lock()
				n.ClassVersions[classID] = version
				if target, ok := n.Supported[classID]; ok {
					target.SetVersion(version)
				}
				n.mutex.Unlock()
			}
		}

		if f.ClassID == zwcc.ClassAssociation {
			if group, maxAssociations, members, ok := zwcc.ParseAssociationReport(f.Body); ok {
				n.mutex.Lock()
				g, exists := n.Groups[group]
				if !exists {
					g = &Group{Index: group}
					n.Groups[group] = g
				}
				g.Members = members
				g.MaxAssociations = int(maxAssociations)
				n.mutex.Unlock()
			}
		}

	case controlled:
		// §4.7 rule 2: a class the node only controls (after-mark) is
		// recorded as an event, not applied to local values.
		if bus != nil {
			bus.Post(zwnotify.Notification{
				Type:    zwnotify.NotificationGeneric,
				NodeID:  n.ID,
				Message: "controlled-class frame",
				Data:    f,
			})
		}

	case stage < StageNodeInfo:
		// Discovery hasn't built the class table yet; buffer for later
		// replay once NodeInfo completes (rule 3).
		n.bufferFrame(f.ClassID, f.Instance, f.Body)

	default:
		// Discovery has finished and the class genuinely isn't in the
		// node's NIF; nothing to do with it.
	}
}

// ReplayBuffered delivers every frame buffered while this node's class
// table wasn't built yet, in arrival order, then clears the buffer. Called
// once the NodeInfo stage installs Supported.
func (n *Node) ReplayBuffered(bus *zwnotify.Bus) {
	n.mutex.Lock()
	frames := n.buffer.frames
	n.buffer.frames = nil
	n.mutex.Unlock()

	for _, bf := range frames {
		n.dispatchSubFrame(zwcc.SubFrame{ClassID: bf.classID, Instance: bf.instance, Body: bf.body}, bus)
	}
}
