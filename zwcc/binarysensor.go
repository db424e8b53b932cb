package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassBinarySensor uint8 = 0x30

const (
	binarySensorGet          uint8 = 0x02
	binarySensorReport       uint8 = 0x03
	binarySensorSupportedGet uint8 = 0x01
	binarySensorSupportedRpt uint8 = 0x04
)

// Binary sensor type codes, v2+.
const (
	BinarySensorTypeGeneral   uint8 = 0x01
	BinarySensorTypeSmoke     uint8 = 0x02
	BinarySensorTypeCO        uint8 = 0x03
	BinarySensorTypeCO2       uint8 = 0x04
	BinarySensorTypeHeat      uint8 = 0x05
	BinarySensorTypeWater     uint8 = 0x06
	BinarySensorTypeFreeze    uint8 = 0x07
	BinarySensorTypeTamper    uint8 = 0x08
	BinarySensorTypeAux       uint8 = 0x09
	BinarySensorTypeDoorWindow uint8 = 0x0a
	BinarySensorTypeMotion    uint8 = 0x0c
)

// BinarySensorClass is the read-only tripped/not-tripped class, one value
// per sensor type the node reports supporting.
type BinarySensorClass struct {
	Base
}

func init() {
	Register(ClassBinarySensor, func(classID uint8) CommandClass { return &BinarySensorClass{Base: NewBase(classID)} })
}

func (c *BinarySensorClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: uint8(BinarySensorTypeGeneral)},
		zwvalue.KindBool, zwvalue.GenreDynamic, "Sensor", "", true, zwvalue.Value{})
}

func (c *BinarySensorClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	switch flags {
	case StateStatic:
		return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{binarySensorSupportedGet}, true)}
	case StateDynamic:
		return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{binarySensorGet}, true)}
	default:
		return nil
	}
}

func (c *BinarySensorClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch payload[0] {
	case binarySensorReport:
		if len(payload) < 2 {
			return true, fmt.Errorf("zwcc: Binary Sensor Report too short")
		}
		sensorType := BinarySensorTypeGeneral
		if len(payload) >= 3 {
			sensorType = payload[2]
		}
		active := payload[1] != 0
		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: sensorType}
		store.Create(id, zwvalue.KindBool, zwvalue.GenreDynamic, sensorTypeName(sensorType), "", true, zwvalue.Value{})
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindBool, Bool: active}); err != nil {
			return true, err
		}
		return true, nil

	case binarySensorSupportedRpt:
		if len(payload) < 2 {
			return true, fmt.Errorf("zwcc: Binary Sensor Supported Report too short")
		}
		bitmask := payload[1:]
		for bit := 0; bit < len(bitmask)*8; bit++ {
			if bitmask[bit/8]&(1<<uint(bit%8)) == 0 {
				continue
			}
			sensorType := uint8(bit + 1)
			id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: sensorType}
			store.Create(id, zwvalue.KindBool, zwvalue.GenreDynamic, sensorTypeName(sensorType), "", true, zwvalue.Value{})
		}
		return true, nil

	default:
		return false, nil
	}
}

func sensorTypeName(t uint8) string {
	switch t {
	case BinarySensorTypeGeneral:
		return "General Purpose"
	case BinarySensorTypeSmoke:
		return "Smoke"
	case BinarySensorTypeCO:
		return "Carbon Monoxide"
	case BinarySensorTypeCO2:
		return "Carbon Dioxide"
	case BinarySensorTypeHeat:
		return "Heat"
	case BinarySensorTypeWater:
		return "Water"
	case BinarySensorTypeFreeze:
		return "Freeze"
	case BinarySensorTypeTamper:
		return "Tamper"
	case BinarySensorTypeAux:
		return "Aux"
	case BinarySensorTypeDoorWindow:
		return "Door/Window"
	case BinarySensorTypeMotion:
		return "Motion"
	default:
		return fmt.Sprintf("Sensor Type 0x%02x", t)
	}
}
