package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

// Version class IDs (0x86).
const (
	ClassVersion uint8 = 0x86

	versionGet                uint8 = 0x11
	versionReport             uint8 = 0x12
	versionCommandClassGet    uint8 = 0x13
	versionCommandClassReport uint8 = 0x14
)

const (
	idxVersionLibrary uint8 = iota
	idxVersionProtocol
	idxVersionApplication
)

// VersionClass reports a node's own library type and protocol/application
// versions and, per other command class, the version that class is implemented at -
// the basis for §4.7's version-negotiation rule.
type VersionClass struct {
	Base
}

func init() {
	Register(ClassVersion, func(classID uint8) CommandClass { return &VersionClass{Base: NewBase(classID)} })
}

func (c *VersionClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxVersionLibrary},
		zwvalue.KindByte, zwvalue.GenreStatic, "Library Type", "", true, zwvalue.Value{})
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxVersionProtocol},
		zwvalue.KindShort, zwvalue.GenreStatic, "Protocol Version", "", true, zwvalue.Value{})
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxVersionApplication},
		zwvalue.KindShort, zwvalue.GenreStatic, "Application Version", "", true, zwvalue.Value{})
}

func (c *VersionClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	if flags != StateStatic {
		return nil
	}
	return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{versionGet}, true)}
}

func (c *VersionClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch payload[0] {
	case versionReport:
		if len(payload) < 6 {
			return true, fmt.Errorf("zwcc: Version Report too short: %d", len(payload))
		}
		library := payload[1]
		protocol := uint16(payload[2])<<8 | uint16(payload[3])
		application := uint16(payload[4])<<8 | uint16(payload[5])

		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxVersionLibrary}
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindByte, Byte: library}); err != nil {
			return true, err
		}
		id.Index = idxVersionProtocol
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindShort, Short: int16(protocol)}); err != nil {
			return true, err
		}
		id.Index = idxVersionApplication
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindShort, Short: int16(application)}); err != nil {
			return true, err
		}
		return true, nil

	case versionCommandClassReport:
		if len(payload) < 3 {
			return true, fmt.Errorf("zwcc: Version Command Class Report too short: %d", len(payload))
		}
		// payload[1] is the queried class ID, payload[2] its version. The
		// node-level class table update happens in zwnode, which issued
		// this query and knows which class it was for.
		return true, nil

	default:
		return false, nil
	}
}

// RequestClassVersion builds a VersionCommandClassGet for classID, used by
// the node query pipeline's per-class version-negotiation step.
func (c *VersionClass) RequestClassVersion(nodeID uint8, classID uint8) *zwmessage.Message {
	return NewSendData(nodeID, c.ClassID(), []uint8{versionCommandClassGet, classID}, true)
}

// ParseVersionCommandClassReport extracts the (classID, version) pair from
// a VersionCommandClassReport payload, for the node query pipeline to apply
// to its own per-class version table - the node, not the Version class
// instance, owns that table since it spans every class on the node.
func ParseVersionCommandClassReport(payload []byte) (classID uint8, version uint8, ok bool) {
	if len(payload) < 3 || payload[0] != versionCommandClassReport {
		return 0, 0, false
	}
	return payload[1], payload[2], true
}
