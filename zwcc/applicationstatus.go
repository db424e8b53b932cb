package zwcc

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassApplicationStatus uint8 = 0x22

const (
	applicationStatusBusy             uint8 = 0x01
	applicationStatusRejectedRequest  uint8 = 0x02
)

const idxApplicationStatus uint8 = 0

// ApplicationStatusClass handles a node's unsolicited "I'm busy" / "request
// rejected" notices. It carries no settable state and nothing to query -
// HandleMsg only ever fires in response to something the node itself sent
// unprompted - so it surfaces the decoded reason through a single
// diagnostic string value rather than a typed reading.
type ApplicationStatusClass struct {
	Base
}

func init() {
	Register(ClassApplicationStatus, func(classID uint8) CommandClass { return &ApplicationStatusClass{Base: NewBase(classID)} })
}

func (c *ApplicationStatusClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {
	store.Create(zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxApplicationStatus},
		zwvalue.KindString, zwvalue.GenreSession, "Application Status", "", true, zwvalue.Value{})
}

func (c *ApplicationStatusClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) < 2 {
		return false, nil
	}

	var msg string
	switch payload[0] {
	case applicationStatusBusy:
		switch payload[1] {
		case 0:
			msg = "try again later"
		case 1:
			wait := uint8(0)
			if len(payload) > 2 {
				wait = payload[2]
			}
			msg = fmt.Sprintf("try again in %d seconds", wait)
		case 2:
			msg = "request queued, will be executed later"
		default:
			msg = "unknown busy status"
		}
	case applicationStatusRejectedRequest:
		msg = fmt.Sprintf("request rejected, status=%d", payload[1])
	default:
		return false, nil
	}

	id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: idxApplicationStatus}
	store.Create(id, zwvalue.KindString, zwvalue.GenreSession, "Application Status", "", true, zwvalue.Value{})
	if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindString, String: msg}); err != nil {
		return true, err
	}
	return true, nil
}
