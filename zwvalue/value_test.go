package zwvalue

import "testing"

func TestCreateIsIdempotentForCurrentValue(t *testing.T) {
	s := NewStore(nil)
	id := ID{NodeID: 5, CommandClass: 0x31, Instance: 1, Index: 1}

	s.Create(id, KindDecimal, GenreDynamic, "Temperature", "C", true, Value{Decimal: Decimal{Value: 10, Precision: 0}})
	s.Commit(id, Value{Decimal: Decimal{Value: 4.2, Precision: 1}})

	// A second Create with different metadata must not disturb the committed value.
	s.Create(id, KindDecimal, GenreDynamic, "Temp", "F", true, Value{Decimal: Decimal{Value: 99, Precision: 0}})

	got, ok := s.Get(id)
	if !ok {
		t.Fatalf("expected value to exist")
	}
	if got.Decimal.Value != 4.2 || got.Decimal.Precision != 1 {
		t.Fatalf("expected committed value to survive duplicate Create, got %+v", got.Decimal)
	}
	if got.Label != "Temp" || got.Units != "F" {
		t.Fatalf("expected metadata to update on duplicate Create, got label=%q units=%q", got.Label, got.Units)
	}
}

func TestCommitClassifiesChangedVsRefreshed(t *testing.T) {
	var kinds []ChangeKind
	s := NewStore(func(k ChangeKind, v Value) { kinds = append(kinds, k) })
	id := ID{NodeID: 5, CommandClass: 0x31, Instance: 1, Index: 1}
	s.Create(id, KindDecimal, GenreDynamic, "Temperature", "C", false, Value{})

	if _, err := s.Commit(id, Value{Decimal: Decimal{Value: 4.2, Precision: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Commit(id, Value{Decimal: Decimal{Value: 4.2, Precision: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Commit(id, Value{Decimal: Decimal{Value: 5.1, Precision: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(kinds) != 3 {
		t.Fatalf("expected 3 watcher calls, got %d", len(kinds))
	}
	if kinds[0] != ValueChanged {
		t.Fatalf("expected first commit to be Changed, got %v", kinds[0])
	}
	if kinds[1] != ValueRefreshed {
		t.Fatalf("expected identical second commit to be Refreshed, got %v", kinds[1])
	}
	if kinds[2] != ValueChanged {
		t.Fatalf("expected differing third commit to be Changed, got %v", kinds[2])
	}
}

func TestSetPendingRejectsUnknownAndReadOnly(t *testing.T) {
	s := NewStore(nil)
	unknown := ID{NodeID: 1, CommandClass: 0x25, Index: 0}
	if err := s.SetPending(unknown, Value{Bool: true}); err == nil {
		t.Fatalf("expected SetPending on unknown ValueID to fail")
	}

	readOnly := ID{NodeID: 1, CommandClass: 0x31, Index: 1}
	s.Create(readOnly, KindDecimal, GenreDynamic, "Temperature", "C", true, Value{})
	if err := s.SetPending(readOnly, Value{Decimal: Decimal{Value: 1, Precision: 0}}); err == nil {
		t.Fatalf("expected SetPending on a read-only ValueID to fail")
	}

	writable := ID{NodeID: 1, CommandClass: 0x25, Index: 0}
	s.Create(writable, KindBool, GenreDynamic, "Switch", "", false, Value{})
	if err := s.SetPending(writable, Value{Bool: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pending, ok := s.Pending(writable)
	if !ok || !pending.Bool {
		t.Fatalf("expected pending value to be recorded")
	}

	if _, err := s.Commit(writable, Value{Bool: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.Pending(writable); ok {
		t.Fatalf("expected pending value to be cleared after Commit")
	}
}
