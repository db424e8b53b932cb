package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassClock uint8 = 0x81

const (
	clockSet    uint8 = 0x04
	clockGet    uint8 = 0x05
	clockReport uint8 = 0x06
)

const (
	idxClockWeekday uint8 = iota
	idxClockHour
	idxClockMinute
)

// ClockClass gets/sets a node's onboard weekday/hour/minute clock, packed
// two bytes on the wire: weekday (bits 5-7) and hour (bits 0-4) in the
// first byte, minute in the second.
type ClockClass struct {
	Base
}

func init() {
	Register(ClassClock, func(classID uint8) CommandClass { return &ClockClass{Base: NewBase(classID)} })
}

func (c *ClockClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxClockWeekday},
		zwvalue.KindByte, zwvalue.GenreSession, "Weekday", "", false, zwvalue.Value{})
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxClockHour},
		zwvalue.KindByte, zwvalue.GenreSession, "Hour", "", false, zwvalue.Value{})
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxClockMinute},
		zwvalue.KindByte, zwvalue.GenreSession, "Minute", "", false, zwvalue.Value{})
}

func (c *ClockClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	if flags != StateSession {
		return nil
	}
	return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{clockGet}, true)}
}

// Set builds a Clock Set; weekday must be 1-7 (Z-Wave has no "unknown
// weekday" on Set, unlike Report which permits 0).
func (c *ClockClass) Set(nodeID uint8, weekday uint8, hour uint8, minute uint8) (*zwmessage.Message, error) {
	if weekday < 1 || weekday > 7 {
		return nil, fmt.Errorf("zwcc: clock weekday must be 1-7, got %d", weekday)
	}
	if hour > 23 {
		return nil, fmt.Errorf("zwcc: clock hour must be 0-23, got %d", hour)
	}
	if minute > 59 {
		return nil, fmt.Errorf("zwcc: clock minute must be 0-59, got %d", minute)
	}
	b0 := (weekday&0x7)<<5 | (hour & 0x1f)
	return NewSendData(nodeID, c.ClassID(), []uint8{clockSet, b0, minute}, false), nil
}

func (c *ClockClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) < 3 || payload[0] != clockReport {
		return false, nil
	}
	weekday := (payload[1] >> 5) & 0x7
	hour := payload[1] & 0x1f
	minute := payload[2]

	base := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance}
	base.Index = idxClockWeekday
	if _, err := store.Commit(base, zwvalue.Value{Kind: zwvalue.KindByte, Byte: weekday}); err != nil {
		return true, err
	}
	base.Index = idxClockHour
	if _, err := store.Commit(base, zwvalue.Value{Kind: zwvalue.KindByte, Byte: hour}); err != nil {
		return true, err
	}
	base.Index = idxClockMinute
	if _, err := store.Commit(base, zwvalue.Value{Kind: zwvalue.KindByte, Byte: minute}); err != nil {
		return true, err
	}
	return true, nil
}
