package zwnode

import (
	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
)

// QueryStage is the ordered pipeline a node progresses through after
// discovery, per §4.6. Not every stage applies to every node; BeginStage
// skips a stage with no work immediately rather than stalling on it.
type QueryStage int

const (
	StageNone QueryStage = iota
	StageProtocolInfo
	StageProbe
	StageWakeUp
	StageManufacturerSpecific1
	StageNodeInfo
	StageNodePlusInfo
	StageManufacturerSpecific2
	StageVersions
	StageInstances
	StageStatic
	StageCacheLoad
	StageAssociations
	StageNeighbors
	StageSession
	StageDynamic
	StageConfiguration
	StageComplete
)

var stageNames = [...]string{
	"None", "ProtocolInfo", "Probe", "WakeUp", "ManufacturerSpecific1",
	"NodeInfo", "NodePlusInfo", "ManufacturerSpecific2", "Versions",
	"Instances", "Static", "CacheLoad", "Associations", "Neighbors",
	"Session", "Dynamic", "Configuration", "Complete",
}

func (s QueryStage) String() string {
	if int(s) < 0 || int(s) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[s]
}

// DefaultStageRetryBudget is how many times a stage is retried before it is
// recorded as "skipped with cause" and the pipeline advances anyway, per
// §4.6's advancement rule.
const DefaultStageRetryBudget = 3

// NoOpCommandClass is the reserved class ID used to probe reachability
// during the Probe stage; it carries no payload and no application-level
// response body.
const NoOpCommandClass uint8 = 0x00

// StageOutcome is returned by BeginStage: the stage the node landed on
// (after skipping any with no work) and the messages to send for it.
// A nil Messages slice with Stage == StageComplete means the pipeline has
// finished.
type StageOutcome struct {
	Stage    QueryStage
	Messages []*zwmessage.Message
}

// BeginStage advances past any stage with nothing to do for this node and
// returns the messages to send for the first stage that has work (or
// StageComplete once every stage has been passed). Idempotent: calling it
// again before FinishStage re-issues the same stage's messages.
func (n *Node) BeginStage() StageOutcome {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	for n.stage != StageComplete {
		msgs := n.buildStageLocked(n.stage)
		if len(msgs) > 0 {
			return StageOutcome{Stage: n.stage, Messages: msgs}
		}
		n.advanceLocked(n.stage)
	}
	return StageOutcome{Stage: StageComplete}
}

// FinishStage records the outcome of the messages BeginStage most recently
// returned for the current stage. success means every enqueued message was
// acknowledged and reported; failure consumes one retry of the stage's
// budget. Returns the stage the node is on after this call, and whether the
// stage that just finished was skipped (budget exhausted rather than
// completed).
func (n *Node) FinishStage(success bool) (next QueryStage, skipped bool) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	stage := n.stage
	if success {
		n.budget[stage] = 0
		n.advanceLocked(stage)
		return n.stage, false
	}

	n.budget[stage]++
	if n.budget[stage] < DefaultStageRetryBudget {
		return n.stage, false
	}
	n.advanceLocked(stage)
	return n.stage, true
}

// advanceLocked moves to the next stage in sequence. Caller holds mutex.
func (n *Node) advanceLocked(from QueryStage) {
	if from < StageComplete {
		n.stage = from + 1
	} else {
		n.stage = StageComplete
	}
}

// buildStageLocked returns the GET messages stage requires for this node,
// or nil if the stage is inapplicable (caller then skips it immediately).
// Caller holds mutex.
func (n *Node) buildStageLocked(stage QueryStage) []*zwmessage.Message {
	switch stage {
	case StageProtocolInfo:
		return []*zwmessage.Message{GetNodeProtocolInfo(n.ID)}

	case StageProbe:
		return []*zwmessage.Message{zwcc.NewSendData(n.ID, NoOpCommandClass, nil, false)}

	case StageWakeUp:
		if n.Listening {
			return nil
		}
		cc, ok := n.Supported[zwcc.ClassWakeUp]
		if !ok {
			return nil
		}
		return cc.RequestState(zwcc.StateStatic, 1, n.ID)

	case StageManufacturerSpecific1, StageManufacturerSpecific2:
		if n.ManufacturerID != 0 {
			return nil
		}
		cc, ok := n.Supported[zwcc.ClassManufacturerSpecific]
		if !ok {
			return nil
		}
		return cc.RequestState(zwcc.StateStatic, 1, n.ID)

	case StageNodeInfo, StageNodePlusInfo:
		return []*zwmessage.Message{RequestNodeInfo(n.ID)}

	case StageVersions:
		return n.buildVersionRequestsLocked()

	case StageInstances:
		// Multi-instance/multi-channel discovery (§4.7) is driven by each
		// class's own instance-count query once a class reports it supports
		// more than one instance; none of the classes implemented so far
		// expose that query, so this stage currently always has no work.
		return nil

	case StageStatic:
		return n.buildClassRequestsLocked(zwcc.StateStatic, zwcc.ClassWakeUp, zwcc.ClassAssociation)

	case StageCacheLoad:
		// Applying persisted values without hitting the wire is zwpersist's
		// responsibility; the pipeline stage itself issues no GETs.
		return nil

	case StageAssociations:
		cc, ok := n.Supported[zwcc.ClassAssociation]
		if !ok {
			return nil
		}
		return cc.RequestState(zwcc.StateStatic, 1, n.ID)

	case StageNeighbors:
		// The controller's routing-table row for this node is requested
		// through a controller-level function, not a command class; this
		// stage issues no such request.
		return nil

	case StageSession:
		return n.buildClassRequestsLocked(zwcc.StateSession)

	case StageDynamic:
		return n.buildClassRequestsLocked(zwcc.StateDynamic)

	case StageConfiguration:
		// Reading known configuration parameters requires a persisted
		// parameter list (zwpersist); without one there is nothing to GET.
		return nil
	}
	return nil
}

// buildClassRequestsLocked collects RequestState(flags) output across every
// supported class except those in skip, in class-ID order for determinism.
func (n *Node) buildClassRequestsLocked(flags zwcc.StateFlags, skip ...uint8) []*zwmessage.Message {
	skipSet := make(map[uint8]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}

	ids := make([]uint8, 0, len(n.Supported))
	for classID := range n.Supported {
		if skipSet[classID] {
			continue
		}
		ids = append(ids, classID)
	}
	sortUint8(ids)

	var out []*zwmessage.Message
	for _, classID := range ids {
		out = append(out, n.Supported[classID].RequestState(flags, 1, n.ID)...)
	}
	return out
}

func (n *Node) buildVersionRequestsLocked() []*zwmessage.Message {
	cc, hasVersion := n.Supported[zwcc.ClassVersion]
	if !hasVersion {
		return nil
	}
	versionClass, ok := cc.(*zwcc.VersionClass)
	if !ok {
		return nil
	}

	ids := make([]uint8, 0, len(n.Supported))
	for classID := range n.Supported {
		if classID == zwcc.ClassVersion {
			continue
		}
		ids = append(ids, classID)
	}
	sortUint8(ids)

	var out []*zwmessage.Message
	out = append(out, versionClass.RequestState(zwcc.StateStatic, 1, n.ID)...)
	for _, classID := range ids {
		out = append(out, versionClass.RequestClassVersion(n.ID, classID))
	}
	return out
}

// sortUint8 is a tiny insertion sort; the slices here are class-ID lists,
// always small enough that this beats pulling in sort.Slice's overhead.
func sortUint8(ids []uint8) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
