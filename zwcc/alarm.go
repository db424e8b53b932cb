package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassAlarm uint8 = 0x71

const (
	alarmGet             uint8 = 0x04
	alarmReport          uint8 = 0x05
	alarmSet             uint8 = 0x06
	alarmSupportedGet    uint8 = 0x07
	alarmSupportedReport uint8 = 0x08
)

// AlarmTypeFirstSupported requests the first alarm type a Get should
// report, for nodes that don't support type-filtered Get.
const AlarmTypeFirstSupported uint8 = 0xff

// Alarm type codes (a.k.a. Notification in v2+).
const (
	AlarmTypeSmoke      uint8 = 0x01
	AlarmTypeCO         uint8 = 0x02
	AlarmTypeCO2        uint8 = 0x03
	AlarmTypeHeat       uint8 = 0x04
	AlarmTypeWater      uint8 = 0x05
	AlarmTypeAccessControl uint8 = 0x06
	AlarmTypeBurglar    uint8 = 0x07
	AlarmTypePower      uint8 = 0x08
)

// AlarmResult is a decoded Alarm/Notification Report, covering both the v1
// 2-byte layout (type, level) and the v2+ 7-byte layout where the alarm
// type/level/event live at fixed offsets alongside a source node ID.
type AlarmResult struct {
	AlarmType    uint8
	Level        uint8
	SourceNodeID uint8
	Event        uint8
	NotifyOnly   bool
}

// AlarmClass decodes notification/alarm reports. v1 nodes send a flat
// (type, level) pair; v2+ nodes send a 7-byte frame where type and level
// sit at fixed offsets regardless of whether optional fields are present.
type AlarmClass struct {
	Base
}

func init() {
	Register(ClassAlarm, func(classID uint8) CommandClass { return &AlarmClass{Base: NewBase(classID)} })
}

func (c *AlarmClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {}

func (c *AlarmClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	if flags != StateStatic || c.Version() < 2 {
		return nil
	}
	return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{alarmSupportedGet}, true)}
}

func (c *AlarmClass) Get(nodeID uint8, alarmType uint8) *zwmessage.Message {
	if c.Version() < 2 {
		return NewSendData(nodeID, c.ClassID(), []uint8{alarmGet}, true)
	}
	return NewSendData(nodeID, c.ClassID(), []uint8{alarmGet, 0, 0, alarmType}, true)
}

func (c *AlarmClass) Activate(nodeID uint8, alarmType uint8) *zwmessage.Message {
	return NewSendData(nodeID, c.ClassID(), []uint8{alarmSet, alarmType, 0xff}, false)
}

func (c *AlarmClass) Deactivate(nodeID uint8, alarmType uint8) *zwmessage.Message {
	return NewSendData(nodeID, c.ClassID(), []uint8{alarmSet, alarmType, 0x00}, false)
}

func (c *AlarmClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch payload[0] {
	case alarmReport:
		res, err := parseAlarmReport(payload[1:])
		if err != nil {
			return true, err
		}
		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: res.AlarmType}
		store.Create(id, zwvalue.KindByte, zwvalue.GenreDynamic, alarmTypeLabel(res.AlarmType), "", true, zwvalue.Value{})
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindByte, Byte: res.Level}); err != nil {
			return true, err
		}
		return true, nil

	case alarmSupportedReport:
		if len(payload) < 2 {
			return true, fmt.Errorf("zwcc: Alarm Supported Report too short")
		}
		for _, t := range decodeBitmapList(payload[2:]) {
			id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: t}
			store.Create(id, zwvalue.KindByte, zwvalue.GenreDynamic, alarmTypeLabel(t), "", true, zwvalue.Value{})
		}
		return true, nil

	default:
		return false, nil
	}
}

func parseAlarmReport(data []byte) (AlarmResult, error) {
	if len(data) == 2 {
		return AlarmResult{AlarmType: data[0], Level: data[1]}, nil
	}
	if len(data) >= 7 {
		return AlarmResult{
			SourceNodeID: data[2],
			Level:        data[3],
			AlarmType:    data[4],
			Event:        data[5],
		}, nil
	}
	return AlarmResult{}, fmt.Errorf("zwcc: Alarm Report unexpected length %d", len(data))
}

func alarmTypeLabel(t uint8) string {
	switch t {
	case AlarmTypeSmoke:
		return "Smoke Alarm"
	case AlarmTypeCO:
		return "CO Alarm"
	case AlarmTypeCO2:
		return "CO2 Alarm"
	case AlarmTypeHeat:
		return "Heat Alarm"
	case AlarmTypeWater:
		return "Water Alarm"
	case AlarmTypeAccessControl:
		return "Access Control"
	case AlarmTypeBurglar:
		return "Burglar"
	case AlarmTypePower:
		return "Power Management"
	default:
		return fmt.Sprintf("Alarm Type 0x%02x", t)
	}
}
