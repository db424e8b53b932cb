package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassMultiLevelSensor uint8 = 0x31

const (
	sensorGet          uint8 = 0x01
	sensorReport       uint8 = 0x05
	sensorSupportedGetTypes  uint8 = 0x01 // shared opcode space with Get pre-v5; kept distinct for clarity below
	sensorSupportedRptTypes  uint8 = 0x02
	sensorSupportedGetScales uint8 = 0x03
	sensorSupportedRptScales uint8 = 0x04
)

// Sensor type codes, the ones common enough to be worth a name; anything
// else still decodes correctly, just under a generic label.
const (
	MultiLevelSensorTypeTemperature uint8 = 0x01
	MultiLevelSensorTypeGeneral    uint8 = 0x02
	MultiLevelSensorTypeLuminance  uint8 = 0x03
	MultiLevelSensorTypePower      uint8 = 0x04
	MultiLevelSensorTypeHumidity   uint8 = 0x05
	MultiLevelSensorTypeVelocity   uint8 = 0x06
	MultiLevelSensorTypeDirection  uint8 = 0x07
	MultiLevelSensorTypeAtmosphericPressure uint8 = 0x08
	MultiLevelSensorTypeUltraviolet uint8 = 0x1b
	MultiLevelSensorTypeCO2        uint8 = 0x11
)

// MultiLevelSensorResult is a decoded Sensor Multilevel Report.
type MultiLevelSensorResult struct {
	SensorType  uint8
	SensorScale uint8
	Value       zwvalue.Decimal
}

// MultiLevelSensorClass decodes the generic analog-sensor class: byte 0 is
// the sensor type (read as such for every class version), byte 1 packs
// precision/scale/size exactly like Meter's second byte, and the value
// follows in `size` bytes.
type MultiLevelSensorClass struct {
	Base
}

func init() {
	Register(ClassMultiLevelSensor, func(classID uint8) CommandClass { return &MultiLevelSensorClass{Base: NewBase(classID)} })
}

func (c *MultiLevelSensorClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {}

func (c *MultiLevelSensorClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	switch flags {
	case StateStatic:
		if c.Version() >= 5 {
			return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{sensorSupportedGetTypes}, true)}
		}
		return nil
	case StateDynamic:
		return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{sensorGet}, true)}
	default:
		return nil
	}
}

// GetV5 requests a single sensor type/scale combination, for nodes exposing
// more than one sensor type.
func (c *MultiLevelSensorClass) GetV5(nodeID uint8, sensorType uint8, scale uint8) *zwmessage.Message {
	return NewSendData(nodeID, c.ClassID(), []uint8{sensorGet, sensorType, (scale & 0x3) << 3}, true)
}

func (c *MultiLevelSensorClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch payload[0] {
	case sensorReport:
		res, err := parseMultiLevelSensorReport(payload[1:])
		if err != nil {
			return true, err
		}
		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: res.SensorType}
		store.Create(id, zwvalue.KindDecimal, zwvalue.GenreDynamic, sensorTypeLabel(res.SensorType), sensorTypeUnits(res.SensorType, res.SensorScale), true, zwvalue.Value{})
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindDecimal, Decimal: res.Value}); err != nil {
			return true, err
		}
		return true, nil

	case sensorSupportedRptTypes:
		for _, t := range decodeBitmapList(payload[1:]) {
			id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: t}
			store.Create(id, zwvalue.KindDecimal, zwvalue.GenreDynamic, sensorTypeLabel(t), "", true, zwvalue.Value{})
		}
		return true, nil

	default:
		return false, nil
	}
}

func parseMultiLevelSensorReport(data []byte) (MultiLevelSensorResult, error) {
	if len(data) < 1 {
		return MultiLevelSensorResult{}, fmt.Errorf("zwcc: Sensor Report too short")
	}

	sensorType := data[0]
	rest := data[1:]
	if len(rest) < 1 {
		return MultiLevelSensorResult{}, fmt.Errorf("zwcc: Sensor Report missing precision/scale/size byte")
	}
	precision := (rest[0] >> 5) & 0x7
	scale := (rest[0] >> 3) & 0x3
	size := rest[0] & 0x7

	if int(size) < 1 || 1+int(size) > len(rest) {
		return MultiLevelSensorResult{}, fmt.Errorf("zwcc: Sensor Report bad size field: %d", size)
	}
	value, err := zwmessage.DecodeFloat(rest[1:1+size], precision)
	if err != nil {
		return MultiLevelSensorResult{}, err
	}

	return MultiLevelSensorResult{
		SensorType:  sensorType,
		SensorScale: scale,
		Value:       zwvalue.Decimal{Value: value, Precision: precision},
	}, nil
}

// decodeBitmapList turns a "bit N set means type N+1 supported" bitmap into
// the list of set type codes, the layout the Sensor Supported Types Report
// uses. Meter Supported Report's scale bitmap is 0-based and is decoded
// separately in meter.go.
func decodeBitmapList(bitmap []byte) []uint8 {
	var out []uint8
	for bit := 0; bit < len(bitmap)*8; bit++ {
		if bitmap[bit/8]&(1<<uint(bit%8)) != 0 {
			out = append(out, uint8(bit+1))
		}
	}
	return out
}

func sensorTypeLabel(t uint8) string {
	switch t {
	case MultiLevelSensorTypeTemperature:
		return "Temperature"
	case MultiLevelSensorTypeGeneral:
		return "General"
	case MultiLevelSensorTypeLuminance:
		return "Luminance"
	case MultiLevelSensorTypePower:
		return "Power"
	case MultiLevelSensorTypeHumidity:
		return "Relative Humidity"
	case MultiLevelSensorTypeVelocity:
		return "Velocity"
	case MultiLevelSensorTypeDirection:
		return "Direction"
	case MultiLevelSensorTypeAtmosphericPressure:
		return "Atmospheric Pressure"
	case MultiLevelSensorTypeUltraviolet:
		return "Ultraviolet"
	case MultiLevelSensorTypeCO2:
		return "Carbon Dioxide Level"
	default:
		return fmt.Sprintf("Sensor Type 0x%02x", t)
	}
}

func sensorTypeUnits(t uint8, scale uint8) string {
	switch t {
	case MultiLevelSensorTypeTemperature:
		if scale == 1 {
			return "F"
		}
		return "C"
	case MultiLevelSensorTypeLuminance:
		if scale == 1 {
			return "lux"
		}
		return "%"
	case MultiLevelSensorTypePower:
		if scale == 1 {
			return "BTU/h"
		}
		return "W"
	case MultiLevelSensorTypeHumidity:
		return "%"
	case MultiLevelSensorTypeVelocity:
		if scale == 1 {
			return "mph"
		}
		return "m/s"
	case MultiLevelSensorTypeAtmosphericPressure:
		if scale == 1 {
			return "inHg"
		}
		return "kPa"
	case MultiLevelSensorTypeCO2:
		return "ppm"
	default:
		return ""
	}
}
