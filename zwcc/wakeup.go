package zwcc

import (
	"fmt"
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassWakeUp uint8 = 0x84

const (
	wakeUpIntervalSet    uint8 = 0x04
	wakeUpIntervalGet    uint8 = 0x05
	wakeUpIntervalReport uint8 = 0x06
	wakeUpNotification   uint8 = 0x07
	wakeUpNoMoreInfo     uint8 = 0x08
)

// DefaultWakeUpInterval is set on a node during the WakeUp query stage for
// non-listening nodes that don't otherwise specify one.
const DefaultWakeUpInterval = time.Hour

const (
	idxWakeUpInterval uint8 = iota
	idxWakeUpPollPending
)

// NoMoreInformation builds the WakeUpNoMoreInformation message the send
// queue appends after re-injecting a woken node's parked messages (§4.5).
func NoMoreInformation(nodeID uint8) *zwmessage.Message {
	return NewSendData(nodeID, ClassWakeUp, []uint8{wakeUpNoMoreInfo}, false)
}

// IsWakeUpNoMoreInformation reports whether msg is a WakeUpNoMoreInformation
// for the WakeUp class, the predicate zwqueue.SleepNode uses to drop it
// instead of parking it.
func IsWakeUpNoMoreInformation(msg *zwmessage.Message) bool {
	if msg.Function != zwmessage.FuncZWSendData {
		return false
	}
	payload := msg.Payload()
	// ZWSendData payload layout: target node, length, class ID, command...
	return len(payload) >= 4 && payload[2] == ClassWakeUp && payload[3] == wakeUpNoMoreInfo
}

// IsWakeUpNotification reports whether a WakeUp class command body (the
// bytes following the class ID in an ApplicationCommandHandler frame) is a
// WakeUpNotification - the signal zwdriver uses to mark the node awake and
// drain its parked send-queue entries (§4.5).
func IsWakeUpNotification(body []byte) bool {
	return len(body) >= 1 && body[0] == wakeUpNotification
}

// WakeUpClass manages a non-listening node's wake-up interval and the
// "poll pending" flag the poll scheduler sets when a poll falls due while
// the node sleeps.
type WakeUpClass struct {
	Base
	interval time.Duration
}

func init() {
	Register(ClassWakeUp, func(classID uint8) CommandClass { return &WakeUpClass{Base: NewBase(classID), interval: DefaultWakeUpInterval} })
}

func (c *WakeUpClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxWakeUpInterval},
		zwvalue.KindInt, zwvalue.GenreSession, "Wake-up Interval", "s", false, zwvalue.Value{})
}

func (c *WakeUpClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	if flags != StateStatic {
		return nil
	}
	return []*zwmessage.Message{
		c.SetInterval(nodeID, c.interval, 1),
		NewSendData(nodeID, c.ClassID(), []uint8{wakeUpIntervalGet}, true),
	}
}

// SetInterval sets the node's wake-up interval (seconds, 3 bytes
// big-endian) and the destination node ID its notification should target
// (normally the controller itself).
func (c *WakeUpClass) SetInterval(nodeID uint8, interval time.Duration, targetNodeID uint8) *zwmessage.Message {
	seconds := uint32(interval / time.Second)
	payload := []uint8{wakeUpIntervalSet, uint8(seconds >> 16), uint8(seconds >> 8), uint8(seconds), targetNodeID}
	return NewSendData(nodeID, c.ClassID(), payload, false)
}

// SetPollPending records the read-only "Poll Pending" value for nodeID.
// Nothing in this module reads it back or emits a parked poll when the
// node next wakes.
func (c *WakeUpClass) SetPollPending(nodeID uint8, instance uint8, store *zwvalue.Store, pending bool) {
	v := uint8(0)
	if pending {
		v = 1
	}
	id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxWakeUpPollPending}
	store.Create(id, zwvalue.KindByte, zwvalue.GenreDynamic, "Poll Pending", "", true, zwvalue.Value{})
	store.Commit(id, zwvalue.Value{Kind: zwvalue.KindByte, Byte: v})
}

func (c *WakeUpClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch payload[0] {
	case wakeUpIntervalReport:
		if len(payload) < 4 {
			return true, fmt.Errorf("zwcc: Wake Up Interval Report too short")
		}
		seconds := uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])
		c.interval = time.Duration(seconds) * time.Second
		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxWakeUpInterval}
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindInt, Int: int32(seconds)}); err != nil {
			return true, err
		}
		return true, nil

	case wakeUpNotification:
		// The driver's wake-up handler (zwdriver) is responsible for the
		// queue-draining side effect (§4.5); this class only recognizes the
		// frame so the dispatcher doesn't report it as unhandled.
		return true, nil

	default:
		return false, nil
	}
}
