package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassAssociation uint8 = 0x85

const (
	associationSet          uint8 = 0x01
	associationGet          uint8 = 0x02
	associationReport       uint8 = 0x03
	associationRemove       uint8 = 0x04
	associationGroupingsGet uint8 = 0x05
	associationGroupingsRpt uint8 = 0x06
)

// AssociationClass manages a node's association groups: which other node
// IDs it reports state changes to directly, peer-to-peer.
type AssociationClass struct {
	Base
}

func init() {
	Register(ClassAssociation, func(classID uint8) CommandClass { return &AssociationClass{Base: NewBase(classID)} })
}

func (c *AssociationClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {}

func (c *AssociationClass) RequestState(flags StateFlags, instance uint8, nodeID uint8) []*zwmessage.Message {
	if flags != StateStatic {
		return nil
	}
	return []*zwmessage.Message{NewSendData(nodeID, c.ClassID(), []uint8{associationGroupingsGet}, true)}
}

// Add appends nodeIDs to group on targetNode.
func (c *AssociationClass) Add(targetNode uint8, group uint8, nodeIDs []uint8) *zwmessage.Message {
	payload := append([]uint8{associationSet, group}, nodeIDs...)
	return NewSendData(targetNode, c.ClassID(), payload, false)
}

// Remove removes nodeIDs from group on targetNode. An empty nodeIDs with
// group 0 removes targetNode from every group (RemoveAllFromAssociation).
func (c *AssociationClass) Remove(targetNode uint8, group uint8, nodeIDs []uint8) *zwmessage.Message {
	payload := append([]uint8{associationRemove, group}, nodeIDs...)
	return NewSendData(targetNode, c.ClassID(), payload, false)
}

func (c *AssociationClass) Get(targetNode uint8, group uint8) *zwmessage.Message {
	return NewSendData(targetNode, c.ClassID(), []uint8{associationGet, group}, true)
}

func (c *AssociationClass) GetGroupings(targetNode uint8) *zwmessage.Message {
	return NewSendData(targetNode, c.ClassID(), []uint8{associationGroupingsGet}, true)
}

// ParseAssociationReport extracts the group number, max-associations count,
// and member node IDs from an Association Report payload: cmd, group,
// max nodes supported, reports-to-follow, then the member list - the layout
// the teacher's Association.Get parses (its own data slice already has the
// command byte stripped, so its data[1]/data[2]/data[3:] land one byte
// earlier than payload here). ok is false for anything but an Association
// Report.
func ParseAssociationReport(payload []byte) (group uint8, maxAssociations uint8, members []uint8, ok bool) {
	if len(payload) < 4 || payload[0] != associationReport {
		return 0, 0, nil, false
	}
	return payload[1], payload[2], append([]uint8(nil), payload[4:]...), true
}

func (c *AssociationClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) == 0 {
		return false, nil
	}
	switch payload[0] {
	case associationReport:
		if len(payload) < 4 {
			return true, fmt.Errorf("zwcc: Association Report too short")
		}
		group := payload[1]
		members := payload[4:]
		id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: group}
		store.Create(id, zwvalue.KindList, zwvalue.GenreSession, fmt.Sprintf("Group %d", group), "", false, zwvalue.Value{})
		if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindRaw, Raw: append([]byte(nil), members...)}); err != nil {
			return true, err
		}
		return true, nil

	case associationGroupingsRpt:
		if len(payload) < 2 {
			return true, fmt.Errorf("zwcc: Association Groupings Report too short")
		}
		return true, nil

	default:
		return false, nil
	}
}
