package zwnode

import (
	"testing"

	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

func TestParseNodeProtocolInfoListeningBit(t *testing.T) {
	n := New(5, nil)
	body := []uint8{0x80, 0x00, 4, 0x04, 0x10, 0x01}
	if err := ParseNodeProtocolInfo(n, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !n.Listening {
		t.Fatalf("expected listening bit set")
	}
	if n.Generic != 0x10 || n.Specific != 0x01 {
		t.Fatalf("unexpected device class: %+v", n)
	}
}

func TestParseNodeProtocolInfoRejectsBadLength(t *testing.T) {
	n := New(5, nil)
	if err := ParseNodeProtocolInfo(n, []uint8{0x80}); err == nil {
		t.Fatalf("expected error for short body")
	}
}

func TestApplyNodeInfoSplitsAfterMark(t *testing.T) {
	n := New(9, nil)
	body := []uint8{0x10, 0x10, 0x01, zwcc.ClassBinarySwitch, zwcc.ClassBattery, commandClassMark, zwcc.ClassBinarySwitch}
	if err := ApplyNodeInfo(n, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := n.Supported[zwcc.ClassBinarySwitch]; !ok {
		t.Fatalf("expected binary switch to be supported")
	}
	if _, ok := n.Supported[zwcc.ClassBattery]; !ok {
		t.Fatalf("expected battery to be supported")
	}
	if !n.Controlled[zwcc.ClassBinarySwitch] {
		t.Fatalf("expected binary switch to also be recorded as controlled (after mark)")
	}
}

func TestStagePipelineSkipsInapplicableStages(t *testing.T) {
	n := New(3, nil)
	n.Listening = true // skip WakeUp stage

	out := n.BeginStage()
	if out.Stage != StageProtocolInfo {
		t.Fatalf("expected to land on ProtocolInfo, got %v", out.Stage)
	}
	n.FinishStage(true)

	out = n.BeginStage()
	if out.Stage != StageProbe {
		t.Fatalf("expected Probe next, got %v", out.Stage)
	}
	n.FinishStage(true)

	// WakeUp has no work for a listening node; Static/CacheLoad/etc also
	// have no work until classes are discovered and persistence exists, so
	// the pipeline should fall all the way to NodeInfo next, where
	// RequestNodeInfo always has work.
	out = n.BeginStage()
	if out.Stage != StageNodeInfo {
		t.Fatalf("expected to skip straight to NodeInfo, got %v", out.Stage)
	}
}

func TestFinishStageRetriesThenSkips(t *testing.T) {
	n := New(3, nil)
	out := n.BeginStage()
	if out.Stage != StageProtocolInfo {
		t.Fatalf("expected ProtocolInfo, got %v", out.Stage)
	}

	for i := 0; i < DefaultStageRetryBudget-1; i++ {
		next, skipped := n.FinishStage(false)
		if next != StageProtocolInfo || skipped {
			t.Fatalf("expected to stay on ProtocolInfo mid-budget, got %v skipped=%v", next, skipped)
		}
	}

	next, skipped := n.FinishStage(false)
	if next == StageProtocolInfo || !skipped {
		t.Fatalf("expected budget exhaustion to advance past ProtocolInfo, got %v skipped=%v", next, skipped)
	}
}

func TestDispatchAssociationReportPopulatesGroup(t *testing.T) {
	n := New(6, nil)
	cc, ok := zwcc.New(zwcc.ClassAssociation)
	if !ok {
		t.Fatalf("expected Association to be registered")
	}
	n.Supported[zwcc.ClassAssociation] = cc

	// Association Report: group 1, 2 max nodes supported, 0 reports to
	// follow, members {3, 4}.
	body := []uint8{0x03, 1, 2, 0, 3, 4}
	if err := n.Dispatch(zwcc.ClassAssociation, body, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g, ok := n.Groups[1]
	if !ok {
		t.Fatalf("expected group 1 to be populated")
	}
	if g.MaxAssociations != 2 {
		t.Fatalf("expected max associations 2, got %d", g.MaxAssociations)
	}
	if len(g.Members) != 2 || g.Members[0] != 3 || g.Members[1] != 4 {
		t.Fatalf("unexpected members: %+v", g.Members)
	}
}

func TestDispatchBuffersUntilNodeInfoThenReplays(t *testing.T) {
	n := New(4, nil)
	// Still pre-NodeInfo: a frame for a class arrives before the class
	// table exists and should be buffered, not dropped.
	if err := n.Dispatch(zwcc.ClassBattery, []byte{0x03, 0x64}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.buffer.frames) != 1 {
		t.Fatalf("expected 1 buffered frame, got %d", len(n.buffer.frames))
	}

	body := []uint8{0x10, 0x10, 0x01, zwcc.ClassBattery}
	if err := ApplyNodeInfo(n, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n.ReplayBuffered(nil)
	if len(n.buffer.frames) != 0 {
		t.Fatalf("expected buffer drained after replay")
	}

	id := zwvalue.ID{NodeID: n.ID, CommandClass: zwcc.ClassBattery, Instance: 1, Index: 0}
	v, ok := n.Store.Get(id)
	if !ok {
		t.Fatalf("expected battery level value to be committed after replay")
	}
	if v.Byte != 0x64 {
		t.Fatalf("expected committed byte 0x64, got 0x%02x", v.Byte)
	}
}
