package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassThermostatSetpoint uint8 = 0x43

const (
	thermostatSetpointSet             uint8 = 0x01
	thermostatSetpointGet             uint8 = 0x02
	thermostatSetpointReport          uint8 = 0x03
	thermostatSetpointSupportedGet    uint8 = 0x04
	thermostatSetpointSupportedReport uint8 = 0x05
)

// Setpoint indices, per §COMMAND_CLASS_THERMOSTAT_SETPOINT.
const (
	ThermostatSetpointHeating1 uint8 = 0x01
	ThermostatSetpointCooling1 uint8 = 0x02
)

var thermostatSetpointNames = map[uint8]string{
	0x01: "Heating 1", 0x02: "Cooling 1", 0x07: "Furnace", 0x08: "Dry Air",
	0x09: "Moist Air", 0x0a: "Auto Changeover", 0x0b: "Heating Econ", 0x0c: "Cooling Econ", 0x0d: "Away Heating",
}

// ThermostatSetpointClass tracks one decimal value per supported setpoint
// index (heating, cooling, ...), discovered via a Supported Report bitmap
// exactly like Meter/MultiLevelSensor's type tables.
type ThermostatSetpointClass struct {
	Base
	supported map[uint8]bool
}

func init() {
	Register(ClassThermostatSetpoint, func(classID uint8) CommandClass {
		return &ThermostatSetpointClass{Base: NewBase(classID), supported: make(map[uint8]bool)}
	})
}

func (c *ThermostatSetpointClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {}

func (c *ThermostatSetpointClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	switch flags {
	case StateStatic:
		return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{thermostatSetpointSupportedGet}, true)}
	case StateSession:
		var msgs []*zwmessage.Message
		for idx := range c.supported {
			msgs = append(msgs, NewSendData(nodeID, c.ClassID(), []uint8{thermostatSetpointGet, idx}, true))
		}
		return msgs
	default:
		return nil
	}
}

func (c *ThermostatSetpointClass) SetValue(instance uint8, nodeID uint8, v zwvalue.Value) (*zwmessage.Message, error) {
	if v.Kind != zwvalue.KindDecimal {
		return nil, fmt.Errorf("zwcc: thermostat setpoint set expects a decimal value")
	}
	index := v.ID.Index
	scale := uint8(0)
	if v.Units == "F" {
		scale = 1
	}
	data, size, err := zwmessage.EncodeFloat(v.Decimal.Value, v.Decimal.Precision)
	if err != nil {
		return nil, err
	}
	header := (v.Decimal.Precision&0x7)<<5 | (scale&0x3)<<3 | (size & 0x7)
	payload := append([]uint8{thermostatSetpointSet, index, header}, data...)
	return NewSendData(nodeID, c.ClassID(), payload, false), nil
}

func (c *ThermostatSetpointClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch payload[0] {
	case thermostatSetpointReport:
		if len(payload) < 3 {
			return true, fmt.Errorf("zwcc: Thermostat Setpoint Report too short")
		}
		index := payload[1]
		header := payload[2]
		precision := (header >> 5) & 0x7
		scale := (header >> 3) & 0x3
		size := header & 0x7
		if int(size) < 1 || 3+int(size) > len(payload) {
			return true, fmt.Errorf("zwcc: Thermostat Setpoint Report bad size field: %d", size)
		}
		value, err := zwmessage.DecodeFloat(payload[3:3+size], precision)
		if err != nil {
			return true, err
		}
		units := "C"
		if scale != 0 {
			units = "F"
		}
		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: index}
		store.Create(id, zwvalue.KindDecimal, zwvalue.GenreSession, thermostatSetpointName(index), units, false, zwvalue.Value{})
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindDecimal, Units: units, Decimal: zwvalue.Decimal{Value: value, Precision: precision}}); err != nil {
			return true, err
		}
		return true, nil

	case thermostatSetpointSupportedReport:
		for _, idx := range decodeBitmapList(payload[1:]) {
			index := idx - 1
			if _, named := thermostatSetpointNames[index]; !named {
				continue
			}
			c.supported[index] = true
			id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: index}
			store.Create(id, zwvalue.KindDecimal, zwvalue.GenreSession, thermostatSetpointName(index), "C", false, zwvalue.Value{})
		}
		return true, nil

	default:
		return false, nil
	}
}

func thermostatSetpointName(index uint8) string {
	if name, ok := thermostatSetpointNames[index]; ok {
		return name
	}
	return fmt.Sprintf("Setpoint 0x%02x", index)
}
