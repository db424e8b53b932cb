package zwpoll

import (
	"testing"

	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwnode"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

func TestBuildMessagesPollsAwakeNode(t *testing.T) {
	table := zwnode.NewTable()
	n, _ := table.GetOrCreate(5, nil)
	n.Listening = true
	if err := zwnode.ApplyNodeInfo(n, []uint8{0x10, 0x10, 0x01, zwcc.ClassBattery}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	due := []zwvalue.ID{{NodeID: 5, CommandClass: zwcc.ClassBattery, Instance: 1, Index: 0}}
	msgs := BuildMessages(due, table)
	if len(msgs) != 1 {
		t.Fatalf("expected one poll message, got %d", len(msgs))
	}
}

func TestBuildMessagesSetsPollPendingOnSleepingNode(t *testing.T) {
	table := zwnode.NewTable()
	n, _ := table.GetOrCreate(6, nil)
	n.Listening = false
	n.SetAwake(false)
	if err := zwnode.ApplyNodeInfo(n, []uint8{0x10, 0x10, 0x01, zwcc.ClassBattery, zwcc.ClassWakeUp}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	due := []zwvalue.ID{{NodeID: 6, CommandClass: zwcc.ClassBattery, Instance: 1, Index: 0}}
	msgs := BuildMessages(due, table)
	if len(msgs) != 0 {
		t.Fatalf("expected no immediate message for a sleeping node, got %d", len(msgs))
	}

	id := zwvalue.ID{NodeID: 6, CommandClass: zwcc.ClassWakeUp, Instance: 1, Index: 1}
	v, ok := n.Store.Get(id)
	if !ok {
		t.Fatalf("expected poll-pending value to be set")
	}
	if v.Byte != 1 {
		t.Fatalf("expected poll-pending byte 1, got %d", v.Byte)
	}
}
