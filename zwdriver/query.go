package zwdriver

import (
	"github.com/OpenZWave/open-zwave-sub002/zwnode"
	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
	"github.com/OpenZWave/open-zwave-sub002/zwqueue"
	"github.com/OpenZWave/open-zwave-sub002/zwtxn"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

// nodeProgress tracks one node's outstanding query-stage messages, so the
// stage is finished exactly once even when BeginStage issued several
// messages for it. awaitsFrame marks the NodeInfo/NodePlusInfo stages:
// their single RequestNodeInfo message only confirms the request was
// accepted, the NIF itself arrives later as an unsolicited ApplicationUpdate
// frame, so the stage finishes from that frame's arrival instead of from
// the message's own outcome.
type nodeProgress struct {
	stage       zwnode.QueryStage
	remaining   int
	failed      bool
	awaitsFrame bool
}

// onValueChange is the zwvalue.Store watcher installed on every node,
// forwarding Commit's Changed/Refreshed classification onto the
// notification bus, per §4.8/§4.9.
func (d *Driver) onValueChange(kind zwvalue.ChangeKind, v zwvalue.Value) {
	t := zwnotify.ValueChanged
	if kind == zwvalue.ValueRefreshed {
		t = zwnotify.ValueRefreshed
	}
	d.Bus.Post(zwnotify.Notification{Type: t, NodeID: v.ID.NodeID, Data: v})
}

// beginNodeStage issues BeginStage's messages for n at Query priority and
// records how many are outstanding, or - once BeginStage reports
// StageComplete - posts NodeQueriesComplete and re-evaluates the two
// whole-network completion notifications.
func (d *Driver) beginNodeStage(n *zwnode.Node) {
	outcome := n.BeginStage()
	if outcome.Stage == zwnode.StageComplete {
		delete(d.progress, n.ID)
		d.Bus.Post(zwnotify.Notification{Type: zwnotify.NodeQueriesComplete, NodeID: n.ID})
		d.completion.Observe(d.Nodes, d.Bus)
		return
	}

	for _, m := range outcome.Messages {
		d.Queue.Enqueue(zwqueue.Query, m)
	}

	d.progress[n.ID] = &nodeProgress{
		stage:       outcome.Stage,
		remaining:   len(outcome.Messages),
		awaitsFrame: outcome.Stage == zwnode.StageNodeInfo || outcome.Stage == zwnode.StageNodePlusInfo,
	}
}

// onQueryMessageOutcome is called as each Query-priority message's Engine
// outcome arrives. It decrements the issuing stage's outstanding count and,
// once the stage has nothing left in flight, finishes it - unless the stage
// is waiting on a separate unsolicited frame (NodeInfo/NodePlusInfo), in
// which case a successful message outcome only confirms the request went
// out; onQueryOutcome finishes the stage once the frame itself arrives.
func (d *Driver) onQueryMessageOutcome(nodeID uint8, outcome zwtxn.Outcome) {
	p, ok := d.progress[nodeID]
	if !ok {
		return
	}
	if outcome.Err != nil {
		p.failed = true
	}
	p.remaining--
	if p.remaining > 0 {
		return
	}
	if p.awaitsFrame && outcome.Err == nil {
		return
	}
	d.finishNodeStage(nodeID, !p.failed)
}

// onQueryOutcome finishes a stage from an unsolicited frame's arrival
// rather than a queued message's own outcome (the NodeInfo/NodePlusInfo
// case), ignored if that node isn't currently waiting on one.
func (d *Driver) onQueryOutcome(nodeID uint8, success bool) {
	p, ok := d.progress[nodeID]
	if !ok || !p.awaitsFrame {
		return
	}
	d.finishNodeStage(nodeID, success)
}

// finishNodeStage records the stage's outcome, applies node-dead detection
// once a stage is skipped for budget exhaustion N times in a row (§5's
// "node-dead detection after N consecutive timeouts"), and re-enters
// BeginStage for whatever comes next.
func (d *Driver) finishNodeStage(nodeID uint8, success bool) {
	n, ok := d.Nodes.Get(nodeID)
	if !ok {
		delete(d.progress, nodeID)
		return
	}

	_, skipped := n.FinishStage(success)
	delete(d.progress, nodeID)

	if skipped {
		d.nodeTimeouts[nodeID]++
		if d.nodeTimeouts[nodeID] >= d.cfg.NodeDeadAfter {
			n.MarkDead()
			d.completion.Observe(d.Nodes, d.Bus)
			d.reportFailedNodes()
			return
		}
	} else if success {
		d.nodeTimeouts[nodeID] = 0
	}

	d.beginNodeStage(n)
}

// reportFailedNodes refreshes the failed-node gauge from the live node
// table, counting every node MarkDead has flagged.
func (d *Driver) reportFailedNodes() {
	count := 0
	for _, n := range d.Nodes.All() {
		if n.Dead() {
			count++
		}
	}
	d.cfg.Metrics.SetFailedNodes(count)
}
