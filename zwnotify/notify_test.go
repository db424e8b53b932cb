package zwnotify

import "testing"

func TestDrainDeliversInOrder(t *testing.T) {
	b := NewBus(nil)

	var got []Type
	b.AddWatcher(func(n Notification) { got = append(got, n.Type) })

	b.Post(Notification{Type: NodeAdded, NodeID: 5})
	b.Post(Notification{Type: ValueChanged, NodeID: 5})
	b.Post(Notification{Type: NodeQueriesComplete, NodeID: 5})

	if b.Pending() != 3 {
		t.Fatalf("expected 3 pending notifications, got %d", b.Pending())
	}

	b.Drain()

	if b.Pending() != 0 {
		t.Fatalf("expected queue empty after Drain, got %d", b.Pending())
	}
	want := []Type{NodeAdded, ValueChanged, NodeQueriesComplete}
	if len(got) != len(want) {
		t.Fatalf("expected %d deliveries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivery %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestRemoveWatcherStopsDelivery(t *testing.T) {
	b := NewBus(nil)

	count := 0
	handle := b.AddWatcher(func(n Notification) { count++ })

	b.Post(Notification{Type: NodeAdded})
	b.Drain()
	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}

	b.RemoveWatcher(handle)
	b.Post(Notification{Type: NodeAdded})
	b.Drain()
	if count != 1 {
		t.Fatalf("expected delivery count to stay at 1 after RemoveWatcher, got %d", count)
	}
}

func TestReentrantDrainIsReported(t *testing.T) {
	b := NewBus(nil)

	var reentered string
	b.onReentry = func(msg string) { reentered = msg }

	b.AddWatcher(func(n Notification) {
		b.Drain() // illegal: calling back into the bus from a watcher
	})

	b.Post(Notification{Type: NodeAdded})
	b.Drain()

	if reentered == "" {
		t.Fatalf("expected re-entrant Drain to be reported")
	}
}

func TestTwoWatchersBothReceiveEachNotification(t *testing.T) {
	b := NewBus(nil)

	var a, c int
	b.AddWatcher(func(n Notification) { a++ })
	b.AddWatcher(func(n Notification) { c++ })

	b.Post(Notification{Type: AllNodesQueried})
	b.Drain()

	if a != 1 || c != 1 {
		t.Fatalf("expected both watchers to see the notification, got a=%d c=%d", a, c)
	}
}
