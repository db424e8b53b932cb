package zwpoll

import (
	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwnode"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

// BuildMessages turns a Tick's due ValueIDs into outbound RequestValue
// messages, per §4.11: "enqueue their class's request_value at Poll
// priority". A due value belonging to a sleeping node instead sets that
// node's WakeUp "poll pending" flag and is skipped here. Nothing reads that
// flag back, so the skipped poll is not re-issued when the node's
// WakeUpNotification arrives; the value is polled again on a later due tick
// that finds the node awake. A due value whose node or class is no longer
// present (removed mid-flight) is silently dropped, same as a poll target
// disappearing out from under the original's poll thread.
func BuildMessages(due []zwvalue.ID, nodes *zwnode.Table) []*zwmessage.Message {
	var out []*zwmessage.Message
	for _, id := range due {
		n, ok := nodes.Get(id.NodeID)
		if !ok {
			continue
		}

		if !n.Awake() {
			if wakeUp, ok := n.ClassByID(zwcc.ClassWakeUp); ok {
				if w, ok := wakeUp.(*zwcc.WakeUpClass); ok {
					w.SetPollPending(id.NodeID, id.Instance, n.Store, true)
				}
			}
			continue
		}

		cc, ok := n.ClassByID(id.CommandClass)
		if !ok {
			continue
		}
		if msg := cc.RequestValue(id.Index, id.Instance, id.NodeID); msg != nil {
			out = append(out, msg)
		}
	}
	return out
}
