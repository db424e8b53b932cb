package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassMeter uint8 = 0x32

const (
	meterGet          uint8 = 0x01
	meterReport       uint8 = 0x02
	meterSupportedGet uint8 = 0x03
	meterSupportedRpt uint8 = 0x04
	meterReset        uint8 = 0x05
)

// Meter type codes.
const (
	MeterTypeElectric uint8 = 0x01
	MeterTypeGas      uint8 = 0x02
	MeterTypeWater    uint8 = 0x03
)

// Electric meter scale codes.
const (
	MeterScaleElectricKWh  uint8 = 0x00
	MeterScaleElectricKVAh uint8 = 0x01
	MeterScaleElectricW    uint8 = 0x02
	MeterScaleElectricPulses uint8 = 0x03
	MeterScaleElectricV    uint8 = 0x04
	MeterScaleElectricA    uint8 = 0x05
	MeterScaleElectricPowerFactor uint8 = 0x06
)

// Gas meter scale codes.
const (
	MeterScaleGasCubicMeters uint8 = 0x00
	MeterScaleGasCubicFeet   uint8 = 0x01
)

// Water meter scale codes.
const (
	MeterScaleWaterCubicMeters uint8 = 0x00
	MeterScaleWaterCubicFeet   uint8 = 0x01
	MeterScaleWaterUSGallons   uint8 = 0x02
)

// RateType codes, v2+.
const (
	RateTypeUnspecified uint8 = 0x00
	RateTypeImport      uint8 = 0x01
	RateTypeExport      uint8 = 0x02
)

// MeterResult is a fully decoded Meter Report, covering v1 through v4's
// optional DeltaTime/PreviousValue/extended-scale fields.
type MeterResult struct {
	MeterType     uint8
	RateType      uint8
	MeterScale    uint8
	Value         zwvalue.Decimal
	HasDelta      bool
	DeltaTime     uint16
	PreviousValue zwvalue.Decimal
}

// MeterClass decodes the Meter Report bit layout: byte 0 packs meter type
// (bits 0-4), rate type (bits 5-6, v2+) and a v3 scale-extension bit (bit
// 7); byte 1 packs precision (bits 5-7), scale (bits 3-4, extended by byte
// 0 bit 7 into a 3-bit field), and value size (bits 0-2).
type MeterClass struct {
	Base
}

func init() {
	Register(ClassMeter, func(classID uint8) CommandClass { return &MeterClass{Base: NewBase(classID)} })
}

func (c *MeterClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	// Concrete scale ValueIDs are created lazily as reports and supported-
	// scale bitmaps arrive, since a node's meter type/scale set is not known
	// ahead of time.
}

func (c *MeterClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	switch flags {
	case StateStatic:
		if c.Version() >= 2 {
			return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{meterSupportedGet}, true)}
		}
		return nil
	case StateDynamic:
		return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{meterGet}, true)}
	default:
		return nil
	}
}

// GetV2 builds a scale/rate-filtered Meter Get, for v2+ nodes.
func (c *MeterClass) GetV2(nodeID uint8, scale uint8, rateType uint8) *zwmessage.Message {
	b1 := (scale & 0x3) << 3
	if c.Version() >= 3 {
		b1 |= (rateType & 0x3) << 6
	}
	return NewSendData(nodeID, c.ClassID(), []uint8{meterGet, b1}, true)
}

// GetV4 additionally carries an extended scale byte when scale > 3.
func (c *MeterClass) GetV4(nodeID uint8, scale uint8, rateType uint8) *zwmessage.Message {
	if scale <= 0x3 {
		return c.GetV2(nodeID, scale, rateType)
	}
	b1 := uint8(0x7<<3) | (rateType&0x3)<<6
	return NewSendData(nodeID, c.ClassID(), []uint8{meterGet, b1, scale}, true)
}

func (c *MeterClass) Reset(nodeID uint8) *zwmessage.Message {
	return NewSendData(nodeID, c.ClassID(), []uint8{meterReset}, false)
}

func (c *MeterClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch payload[0] {
	case meterReport:
		res, err := parseMeterReport(payload[1:])
		if err != nil {
			return true, err
		}
		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: meterValueIndex(res.MeterType, res.RateType, res.MeterScale)}
		store.Create(id, zwvalue.KindDecimal, zwvalue.GenreDynamic, meterLabel(res.MeterType, res.MeterScale), meterUnits(res.MeterType, res.MeterScale), true, zwvalue.Value{})
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindDecimal, Decimal: res.Value}); err != nil {
			return true, err
		}
		return true, nil

	case meterSupportedRpt:
		if len(payload) < 2 {
			return true, fmt.Errorf("zwcc: Meter Supported Report too short")
		}
		meterType := payload[1] & 0x1f
		if len(payload) < 3 {
			return true, fmt.Errorf("zwcc: Meter Supported Report missing scale bitmap")
		}
		scaleBits := payload[2]
		for scale := uint8(0); scale < 4; scale++ {
			if scaleBits&(1<<scale) == 0 {
				continue
			}
			id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: meterValueIndex(meterType, RateTypeUnspecified, scale)}
			store.Create(id, zwvalue.KindDecimal, zwvalue.GenreDynamic, meterLabel(meterType, scale), meterUnits(meterType, scale), true, zwvalue.Value{})
		}
		return true, nil

	default:
		return false, nil
	}
}

func parseMeterReport(data []byte) (MeterResult, error) {
	if len(data) < 2 {
		return MeterResult{}, fmt.Errorf("zwcc: Meter Report too short: %d", len(data))
	}
	meterType := data[0] & 0x1f
	rateType := (data[0] >> 5) & 0x3
	scaleExt := (data[0] >> 7) & 0x1

	precision := (data[1] >> 5) & 0x7
	scale := (data[1]>>3)&0x3 | scaleExt<<2
	size := data[1] & 0x7

	if int(size) < 1 || 2+int(size) > len(data) {
		return MeterResult{}, fmt.Errorf("zwcc: Meter Report bad size field: %d", size)
	}
	value, err := zwmessage.DecodeFloat(data[2:2+size], precision)
	if err != nil {
		return MeterResult{}, err
	}

	res := MeterResult{
		MeterType:  meterType,
		RateType:   rateType,
		MeterScale: scale,
		Value:      zwvalue.Decimal{Value: value, Precision: precision},
	}

	rest := data[2+size:]
	if len(rest) >= 2+int(size) {
		res.HasDelta = true
		res.DeltaTime = uint16(rest[0])<<8 | uint16(rest[1])
		prev, err := zwmessage.DecodeFloat(rest[2:2+size], precision)
		if err != nil {
			return MeterResult{}, err
		}
		res.PreviousValue = zwvalue.Decimal{Value: prev, Precision: precision}
	}

	if scale == 0x7 && len(rest) > 0 {
		// v4 extended scale byte follows DeltaTime/PreviousValue when present.
		res.MeterScale = rest[len(rest)-1]
	}

	return res, nil
}

func meterValueIndex(meterType, rateType, scale uint8) uint8 {
	return (rateType&0x3)<<6 | (meterType&0x7)<<3 | (scale & 0x7)
}

func meterLabel(meterType, scale uint8) string {
	switch meterType {
	case MeterTypeElectric:
		return "Electric"
	case MeterTypeGas:
		return "Gas"
	case MeterTypeWater:
		return "Water"
	default:
		return fmt.Sprintf("Meter Type 0x%02x", meterType)
	}
}

func meterUnits(meterType, scale uint8) string {
	switch meterType {
	case MeterTypeElectric:
		switch scale {
		case MeterScaleElectricKWh:
			return "kWh"
		case MeterScaleElectricKVAh:
			return "kVAh"
		case MeterScaleElectricW:
			return "W"
		case MeterScaleElectricPulses:
			return "pulses"
		case MeterScaleElectricV:
			return "V"
		case MeterScaleElectricA:
			return "A"
		case MeterScaleElectricPowerFactor:
			return "PF"
		}
	case MeterTypeGas:
		switch scale {
		case MeterScaleGasCubicMeters:
			return "m3"
		case MeterScaleGasCubicFeet:
			return "ft3"
		}
	case MeterTypeWater:
		switch scale {
		case MeterScaleWaterCubicMeters:
			return "m3"
		case MeterScaleWaterCubicFeet:
			return "ft3"
		case MeterScaleWaterUSGallons:
			return "gal"
		}
	}
	return ""
}
