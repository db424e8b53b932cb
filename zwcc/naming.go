package zwcc

import (
	"fmt"
	"unicode/utf16"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassNamingAndLocation uint8 = 0x77

const (
	nameSet       uint8 = 0x01
	nameGet       uint8 = 0x02
	nameReport    uint8 = 0x03
	locationSet    uint8 = 0x04
	locationGet    uint8 = 0x05
	locationReport uint8 = 0x06
)

const (
	encodingASCII         uint8 = 0x00
	encodingExtendedASCII uint8 = 0x01
	encodingUTF16         uint8 = 0x02
)

const (
	maxNameLength     = 16
	maxLocationLength = 16
)

const (
	idxName uint8 = iota
	idxLocation
)

// NamingAndLocationClass gets/sets a node's user-assigned name and
// location strings, each prefixed on the wire by a one-byte character
// encoding selector.
type NamingAndLocationClass struct {
	Base
}

func init() {
	Register(ClassNamingAndLocation, func(classID uint8) CommandClass { return &NamingAndLocationClass{Base: NewBase(classID)} })
}

func (c *NamingAndLocationClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxName},
		zwvalue.KindString, zwvalue.GenreStatic, "Name", "", false, zwvalue.Value{})
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxLocation},
		zwvalue.KindString, zwvalue.GenreStatic, "Location", "", false, zwvalue.Value{})
}

func (c *NamingAndLocationClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	if flags != StateStatic {
		return nil
	}
	return []*zwmessage.Message{
		NewSendData(nodeID, c.ClassID(), []uint8{nameGet}, true),
		NewSendData(nodeID, c.ClassID(), []uint8{locationGet}, true),
	}
}

func (c *NamingAndLocationClass) SetName(nodeID uint8, name string) (*zwmessage.Message, error) {
	if len(name) > maxNameLength {
		return nil, fmt.Errorf("zwcc: name %q exceeds %d characters", name, maxNameLength)
	}
	payload := append([]uint8{nameSet, encodingExtendedASCII}, []byte(name)...)
	return NewSendData(nodeID, c.ClassID(), payload, false), nil
}

func (c *NamingAndLocationClass) SetLocation(nodeID uint8, location string) (*zwmessage.Message, error) {
	if len(location) > maxLocationLength {
		return nil, fmt.Errorf("zwcc: location %q exceeds %d characters", location, maxLocationLength)
	}
	payload := append([]uint8{locationSet, encodingExtendedASCII}, []byte(location)...)
	return NewSendData(nodeID, c.ClassID(), payload, false), nil
}

func (c *NamingAndLocationClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch payload[0] {
	case nameReport:
		s, err := extractString(payload[1:])
		if err != nil {
			return true, err
		}
		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxName}
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindString, String: s}); err != nil {
			return true, err
		}
		return true, nil

	case locationReport:
		s, err := extractString(payload[1:])
		if err != nil {
			return true, err
		}
		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxLocation}
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindString, String: s}); err != nil {
			return true, err
		}
		return true, nil

	default:
		return false, nil
	}
}

// extractString decodes a naming/location-style [encoding][bytes] field.
// ASCII and Extended ASCII are copied through as Latin-1; UTF-16 is decoded
// big-endian per the Z-Wave wire convention.
func extractString(data []byte) (string, error) {
	if len(data) < 1 {
		return "", fmt.Errorf("zwcc: string field missing encoding byte")
	}
	encoding := data[0] & 0x3
	body := data[1:]

	switch encoding {
	case encodingASCII, encodingExtendedASCII:
		runes := make([]rune, len(body))
		for i, b := range body {
			runes[i] = rune(b)
		}
		return string(runes), nil
	case encodingUTF16:
		if len(body)%2 != 0 {
			return "", fmt.Errorf("zwcc: UTF-16 string field has odd byte length %d", len(body))
		}
		units := make([]uint16, len(body)/2)
		for i := range units {
			units[i] = uint16(body[2*i])<<8 | uint16(body[2*i+1])
		}
		return string(utf16.Decode(units)), nil
	default:
		return "", fmt.Errorf("zwcc: unsupported string encoding 0x%x", encoding)
	}
}
