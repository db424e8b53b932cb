package zwcc

import (
	"encoding/binary"
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassManufacturerSpecific uint8 = 0x72

const (
	manufacturerSpecificGet    uint8 = 0x04
	manufacturerSpecificReport uint8 = 0x05
)

const (
	idxManufacturerID uint8 = iota
	idxProductType
	idxProductID
)

// ManufacturerSpecificClass reports the manufacturer/product-type/
// product ID triple used to look up a node's device description, per the
// manufacturer_specific query stage.
type ManufacturerSpecificClass struct {
	Base
}

func init() {
	Register(ClassManufacturerSpecific, func(classID uint8) CommandClass { return &ManufacturerSpecificClass{Base: NewBase(classID)} })
}

func (c *ManufacturerSpecificClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	for idx, label := range map[uint8]string{idxManufacturerID: "Manufacturer ID", idxProductType: "Product Type", idxProductID: "Product ID"} {
		store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idx},
			zwvalue.KindShort, zwvalue.GenreStatic, label, "", true, zwvalue.Value{})
	}
}

func (c *ManufacturerSpecificClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	if flags != StateStatic {
		return nil
	}
	return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{manufacturerSpecificGet}, true)}
}

func (c *ManufacturerSpecificClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) < 7 || payload[0] != manufacturerSpecificReport {
		return false, nil
	}
	manufacturerID := binary.BigEndian.Uint16(payload[1:3])
	productType := binary.BigEndian.Uint16(payload[3:5])
	productID := binary.BigEndian.Uint16(payload[5:7])

	base := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance}
	base.Index = idxManufacturerID
	if _, err := store.Commit(base, zwvalue.Value{Kind: zwvalue.KindShort, Short: int16(manufacturerID)}); err != nil {
		return true, fmt.Errorf("zwcc: manufacturer specific commit: %w", err)
	}
	base.Index = idxProductType
	if _, err := store.Commit(base, zwvalue.Value{Kind: zwvalue.KindShort, Short: int16(productType)}); err != nil {
		return true, err
	}
	base.Index = idxProductID
	if _, err := store.Commit(base, zwvalue.Value{Kind: zwvalue.KindShort, Short: int16(productID)}); err != nil {
		return true, err
	}
	return true, nil
}
