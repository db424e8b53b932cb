package zwpoll

import (
	"testing"

	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

func TestEnableDefaultsAndDisable(t *testing.T) {
	s := New(0)
	if s.Interval() != DefaultInterval {
		t.Fatalf("expected default interval, got %v", s.Interval())
	}

	id := zwvalue.ID{NodeID: 3, CommandClass: 0x25, Instance: 1, Index: 0}
	s.Enable(id, 2)
	if intensity, ok := s.IsPolled(id); !ok || intensity != 2 {
		t.Fatalf("expected polled at intensity 2, got %d ok=%v", intensity, ok)
	}

	s.Disable(id)
	if _, ok := s.IsPolled(id); ok {
		t.Fatalf("expected disabled after Disable")
	}
}

func TestTickRespectsIntensity(t *testing.T) {
	s := New(DefaultInterval)
	idFast := zwvalue.ID{NodeID: 1, CommandClass: 0x25, Instance: 1, Index: 0}
	idSlow := zwvalue.ID{NodeID: 1, CommandClass: 0x31, Instance: 1, Index: 0}
	s.Enable(idFast, 1)
	s.Enable(idSlow, 3)

	due := s.Tick()
	if len(due) != 2 {
		t.Fatalf("expected both due on first tick, got %d", len(due))
	}

	due = s.Tick()
	if len(due) != 1 || due[0] != idFast {
		t.Fatalf("expected only idFast due on second tick, got %+v", due)
	}

	s.Tick()
	due = s.Tick()
	if len(due) != 2 {
		t.Fatalf("expected both due again once idSlow's 3 cycles elapse, got %d", len(due))
	}
}

func TestEnableZeroIntensityDisables(t *testing.T) {
	s := New(DefaultInterval)
	id := zwvalue.ID{NodeID: 2, CommandClass: 0x25, Instance: 1, Index: 0}
	s.Enable(id, 5)
	s.Enable(id, 0)
	if _, ok := s.IsPolled(id); ok {
		t.Fatalf("expected intensity<=0 to disable")
	}
}
