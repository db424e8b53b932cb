package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassThermostatMode uint8 = 0x40

const (
	thermostatModeSet             uint8 = 0x01
	thermostatModeGet             uint8 = 0x02
	thermostatModeReport          uint8 = 0x03
	thermostatModeSupportedGet    uint8 = 0x04
	thermostatModeSupportedReport uint8 = 0x05
)

var thermostatModeNames = []string{
	"Off", "Heat", "Cool", "Auto", "Aux Heat", "Resume", "Fan Only",
	"Furnace", "Dry Air", "Moist Air", "Auto Changeover", "Heat Econ", "Cool Econ",
}

const idxThermostatMode uint8 = 0

// ThermostatModeClass is the single-value Off/Heat/Cool/Auto/... mode
// selector a thermostat exposes.
type ThermostatModeClass struct {
	Base
}

func init() {
	Register(ClassThermostatMode, func(classID uint8) CommandClass { return &ThermostatModeClass{Base: NewBase(classID)} })
}

func (c *ThermostatModeClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxThermostatMode},
		zwvalue.KindList, zwvalue.GenreDynamic, "Mode", "", false, zwvalue.Value{})
}

func (c *ThermostatModeClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	switch flags {
	case StateStatic:
		return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{thermostatModeSupportedGet}, true)}
	case StateDynamic:
		return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{thermostatModeGet}, true)}
	default:
		return nil
	}
}

func (c *ThermostatModeClass) SetValue(instance uint8, nodeID uint8, v zwvalue.Value) (*zwmessage.Message, error) {
	if v.Kind != zwvalue.KindList || int(v.Byte) >= len(thermostatModeNames) {
		return nil, fmt.Errorf("zwcc: thermostat mode set expects a list value in range")
	}
	return NewSendData(nodeID, c.ClassID(), []uint8{thermostatModeSet, v.Byte}, false), nil
}

func (c *ThermostatModeClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch payload[0] {
	case thermostatModeReport:
		if len(payload) < 2 {
			return true, fmt.Errorf("zwcc: Thermostat Mode Report too short")
		}
		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxThermostatMode}
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindList, Byte: payload[1]}); err != nil {
			return true, err
		}
		return true, nil

	case thermostatModeSupportedReport:
		c.CreateVars(nodeID, instance, store)
		return true, nil

	default:
		return false, nil
	}
}

// ModeName renders a mode code for diagnostics/UI, falling back to the raw
// code for values beyond the known table.
func ModeName(mode uint8) string {
	if int(mode) < len(thermostatModeNames) {
		return thermostatModeNames[mode]
	}
	return fmt.Sprintf("Mode 0x%02x", mode)
}
