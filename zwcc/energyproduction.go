package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassEnergyProduction uint8 = 0x90

const (
	energyProductionGet    uint8 = 0x02
	energyProductionReport uint8 = 0x03
)

// Production parameter indices.
const (
	ProductionInstant uint8 = 0x00
	ProductionTotal   uint8 = 0x01
	ProductionToday   uint8 = 0x02
	ProductionTime    uint8 = 0x03
)

var energyProductionNames = []string{
	"Instant energy production", "Total energy production",
	"Energy production today", "Total production time",
}

// EnergyProductionClass reports a solar/wind generator's instant, total,
// daily and cumulative-time production figures, one decimal value per
// parameter index.
type EnergyProductionClass struct {
	Base
}

func init() {
	Register(ClassEnergyProduction, func(classID uint8) CommandClass { return &EnergyProductionClass{Base: NewBase(classID)} })
}

func (c *EnergyProductionClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	for idx, name := range energyProductionNames {
		store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: uint8(idx)},
			zwvalue.KindDecimal, zwvalue.GenreDynamic, name, "", true, zwvalue.Value{})
	}
}

func (c *EnergyProductionClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	if flags != StateDynamic {
		return nil
	}
	msgs := make([]*zwmessage.Message, len(energyProductionNames))
	for idx := range energyProductionNames {
		msgs[idx] = NewSendData(nodeID, c.ClassID(), []uint8{energyProductionGet, uint8(idx)}, true)
	}
	return msgs
}

func (c *EnergyProductionClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) < 3 || payload[0] != energyProductionReport {
		return false, nil
	}
	parameter := payload[1]
	if int(parameter) >= len(energyProductionNames) {
		return true, fmt.Errorf("zwcc: Energy Production Report unknown parameter 0x%02x", parameter)
	}
	rest := payload[2:]
	if len(rest) < 1 {
		return true, fmt.Errorf("zwcc: Energy Production Report missing precision/scale/size byte")
	}
	precision := (rest[0] >> 5) & 0x7
	size := rest[0] & 0x7
	if int(size) < 1 || 1+int(size) > len(rest) {
		return true, fmt.Errorf("zwcc: Energy Production Report bad size field: %d", size)
	}
	value, err := zwmessage.DecodeFloat(rest[1:1+size], precision)
	if err != nil {
		return true, err
	}

	id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: parameter}
	store.Create(id, zwvalue.KindDecimal, zwvalue.GenreDynamic, energyProductionNames[parameter], "", true, zwvalue.Value{})
	if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindDecimal, Decimal: zwvalue.Decimal{Value: value, Precision: precision}}); err != nil {
		return true, err
	}
	return true, nil
}
