package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassThermostatFanState uint8 = 0x45

const (
	thermostatFanStateGet             uint8 = 0x02
	thermostatFanStateReport          uint8 = 0x03
	thermostatFanStateSupportedGet    uint8 = 0x04
	thermostatFanStateSupportedReport uint8 = 0x05
)

var thermostatFanStateNames = []string{"Idle", "Running Low", "Running High"}

const idxThermostatFanState uint8 = 0

// ThermostatFanStateClass is a read-only Idle/Running Low/Running High
// indicator, the fan-side counterpart to ThermostatMode.
type ThermostatFanStateClass struct {
	Base
}

func init() {
	Register(ClassThermostatFanState, func(classID uint8) CommandClass { return &ThermostatFanStateClass{Base: NewBase(classID)} })
}

func (c *ThermostatFanStateClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxThermostatFanState},
		zwvalue.KindList, zwvalue.GenreDynamic, "Fan State", "", true, zwvalue.Value{})
}

func (c *ThermostatFanStateClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	switch flags {
	case StateStatic:
		return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{thermostatFanStateSupportedGet}, true)}
	case StateDynamic:
		return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{thermostatFanStateGet}, true)}
	default:
		return nil
	}
}

func (c *ThermostatFanStateClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch payload[0] {
	case thermostatFanStateReport:
		if len(payload) < 2 {
			return true, fmt.Errorf("zwcc: Thermostat Fan State Report too short")
		}
		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxThermostatFanState}
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindList, Byte: payload[1] & 0xf}); err != nil {
			return true, err
		}
		return true, nil

	case thermostatFanStateSupportedReport:
		c.CreateVars(nodeID, instance, store)
		return true, nil

	default:
		return false, nil
	}
}

// FanStateName renders a fan-state code for diagnostics/UI.
func FanStateName(state uint8) string {
	if int(state) < len(thermostatFanStateNames) {
		return thermostatFanStateNames[state]
	}
	return fmt.Sprintf("State 0x%02x", state)
}
