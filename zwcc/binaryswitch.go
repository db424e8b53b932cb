package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassBinarySwitch uint8 = 0x25

const (
	binarySwitchSet    uint8 = 0x01
	binarySwitchGet    uint8 = 0x02
	binarySwitchReport uint8 = 0x03
)

const (
	switchOn  uint8 = 0xff
	switchOff uint8 = 0x00
)

const idxBinarySwitchLevel uint8 = 0

// BinarySwitchClass is the on/off actuator class.
type BinarySwitchClass struct {
	Base
}

func init() {
	Register(ClassBinarySwitch, func(classID uint8) CommandClass { return &BinarySwitchClass{Base: NewBase(classID)} })
}

func (c *BinarySwitchClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxBinarySwitchLevel},
		zwvalue.KindBool, zwvalue.GenreDynamic, "Switch", "", false, zwvalue.Value{})
}

func (c *BinarySwitchClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	if flags != StateDynamic {
		return nil
	}
	return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{binarySwitchGet}, true)}
}

func (c *BinarySwitchClass) RequestValue(index uint8, instance uint8, nodeID uint8) *zwmessage.Message {
	if index != idxBinarySwitchLevel {
		return nil
	}
	return NewSendData(nodeID, c.ClassID(), []uint8{binarySwitchGet}, true)
}

func (c *BinarySwitchClass) SetValue(instance uint8, nodeID uint8, v zwvalue.Value) (*zwmessage.Message, error) {
	if v.Kind != zwvalue.KindBool {
		return nil, fmt.Errorf("zwcc: binary switch set expects a bool value")
	}
	level := switchOff
	if v.Bool {
		level = switchOn
	}
	return NewSendData(nodeID, c.ClassID(), []uint8{binarySwitchSet, level}, false), nil
}

func (c *BinarySwitchClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) < 2 || payload[0] != binarySwitchReport {
		return false, nil
	}
	_, err := store.Commit(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxBinarySwitchLevel},
		zwvalue.Value{Kind: zwvalue.KindBool, Bool: payload[1] != 0})
	if err != nil {
		return true, fmt.Errorf("zwcc: binary switch commit: %w", err)
	}
	return true, nil
}
