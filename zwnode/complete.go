package zwnode

import "github.com/OpenZWave/open-zwave-sub002/zwnotify"

// CompletionTracker posts the two whole-network completion notifications
// §4.6 describes, each exactly once across the Table's lifetime. The third,
// per-node NodeQueriesComplete, is not posted here: the caller posts it as
// each individual node reaches StageComplete. Observe re-evaluates the two
// whole-network notifications every time a node's stage changes, tracking
// which it has already posted so they fire once.
type CompletionTracker struct {
	awakePosted bool
	allPosted   bool
}

// Observe inspects the table's current node states and posts
// AwakeNodesQueried once every listening node has reached StageComplete,
// and AllNodesQueried once every node (listening or not) has reached
// StageComplete or been marked dead. Safe to call after every stage
// transition; each notification is posted at most once.
func (ct *CompletionTracker) Observe(t *Table, bus *zwnotify.Bus) {
	nodes := t.All()
	if len(nodes) == 0 {
		return
	}

	allAwakeDone := true
	allDone := true
	for _, n := range nodes {
		n.mutex.RLock()
		stage := n.stage
		listening := n.Listening
		dead := n.dead
		n.mutex.RUnlock()

		done := stage == StageComplete || dead
		if listening && !done {
			allAwakeDone = false
		}
		if !done {
			allDone = false
		}
	}

	if allAwakeDone && !ct.awakePosted {
		ct.awakePosted = true
		bus.Post(zwnotify.Notification{Type: zwnotify.AwakeNodesQueried})
	}
	if allDone && !ct.allPosted {
		ct.allPosted = true
		bus.Post(zwnotify.Notification{Type: zwnotify.AllNodesQueried})
	}
}
