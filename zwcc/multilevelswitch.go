package zwcc

import (
	"fmt"
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassMultiLevelSwitch uint8 = 0x26

const (
	switchMLSet    uint8 = 0x01
	switchMLGet    uint8 = 0x02
	switchMLReport uint8 = 0x03
	switchMLStartLevelChange uint8 = 0x04
	switchMLStopLevelChange  uint8 = 0x05
)

const switchMLOn uint8 = 0xff

const idxMultiLevelSwitch uint8 = 0

// MultiLevelSwitchClass is the dimmer-style 0-99 (plus 0xff "last on")
// actuator class.
type MultiLevelSwitchClass struct {
	Base
}

func init() {
	Register(ClassMultiLevelSwitch, func(classID uint8) CommandClass { return &MultiLevelSwitchClass{Base: NewBase(classID)} })
}

func (c *MultiLevelSwitchClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxMultiLevelSwitch},
		zwvalue.KindByte, zwvalue.GenreDynamic, "Level", "%", false, zwvalue.Value{})
}

func (c *MultiLevelSwitchClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	if flags != StateDynamic {
		return nil
	}
	return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{switchMLGet}, true)}
}

func (c *MultiLevelSwitchClass) RequestValue(index uint8, instance uint8, nodeID uint8) *zwmessage.Message {
	if index != idxMultiLevelSwitch {
		return nil
	}
	return NewSendData(nodeID, c.ClassID(), []uint8{switchMLGet}, true)
}

func (c *MultiLevelSwitchClass) SetValue(instance uint8, nodeID uint8, v zwvalue.Value) (*zwmessage.Message, error) {
	if v.Kind != zwvalue.KindByte {
		return nil, fmt.Errorf("zwcc: multilevel switch set expects a byte value")
	}
	if v.Byte > 99 && v.Byte != switchMLOn {
		return nil, fmt.Errorf("zwcc: multilevel switch level %d out of range", v.Byte)
	}
	return NewSendData(nodeID, c.ClassID(), []uint8{switchMLSet, v.Byte}, false), nil
}

// SetV2 additionally carries a transition duration, v2+.
func (c *MultiLevelSwitchClass) SetV2(nodeID uint8, level uint8, duration time.Duration) (*zwmessage.Message, error) {
	b, err := zwmessage.EncodeDuration(duration)
	if err != nil {
		return nil, err
	}
	return NewSendData(nodeID, c.ClassID(), []uint8{switchMLSet, level, b}, false), nil
}

func (c *MultiLevelSwitchClass) Start(nodeID uint8, up bool, ignoreStartLevel bool, startLevel uint8) *zwmessage.Message {
	flags := uint8(0)
	if up {
		flags |= 0x40
	}
	if ignoreStartLevel {
		flags |= 0x20
	}
	return NewSendData(nodeID, c.ClassID(), []uint8{switchMLStartLevelChange, flags, startLevel}, false)
}

func (c *MultiLevelSwitchClass) Stop(nodeID uint8) *zwmessage.Message {
	return NewSendData(nodeID, c.ClassID(), []uint8{switchMLStopLevelChange}, false)
}

func (c *MultiLevelSwitchClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) < 2 || payload[0] != switchMLReport {
		return false, nil
	}
	level := payload[1]
	_, err := store.Commit(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxMultiLevelSwitch},
		zwvalue.Value{Kind: zwvalue.KindByte, Byte: level})
	if err != nil {
		return true, fmt.Errorf("zwcc: multilevel switch commit: %w", err)
	}
	return true, nil
}
