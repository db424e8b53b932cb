package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassBattery uint8 = 0x80

const (
	batteryGet    uint8 = 0x02
	batteryReport uint8 = 0x03
)

const idxBatteryLevel uint8 = 0

// BatteryClass exposes a node's battery level as a percentage, with 0xff on
// the wire meaning "low battery" rather than literally 0%.
type BatteryClass struct {
	Base
}

func init() {
	Register(ClassBattery, func(classID uint8) CommandClass { return &BatteryClass{Base: NewBase(classID)} })
}

func (c *BatteryClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxBatteryLevel},
		zwvalue.KindByte, zwvalue.GenreDynamic, "Battery Level", "%", true, zwvalue.Value{})
}

func (c *BatteryClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	if flags != StateDynamic {
		return nil
	}
	return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{batteryGet}, true)}
}

func (c *BatteryClass) RequestValue(index uint8, instance uint8, nodeID uint8) *zwmessage.Message {
	if index != idxBatteryLevel {
		return nil
	}
	return NewSendData(nodeID, c.ClassID(), []uint8{batteryGet}, true)
}

func (c *BatteryClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) < 2 || payload[0] != batteryReport {
		return false, nil
	}
	level := payload[1]
	if level == 0xff {
		level = 0
	}
	_, err := store.Commit(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxBatteryLevel},
		zwvalue.Value{Kind: zwvalue.KindByte, Byte: level})
	if err != nil {
		return true, fmt.Errorf("zwcc: battery commit: %w", err)
	}
	return true, nil
}
