package zwqueue

import (
	"testing"

	"github.com/OpenZWave/open-zwave-sub002/zwframe"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
)

func newMsg(function, target uint8, payload ...uint8) *zwmessage.Message {
	m := zwmessage.New(function, target, zwframe.TypeRequest, true, false)
	m.AppendSlice(payload)
	return m
}

func TestDequeueOrderByPriority(t *testing.T) {
	q := New()

	poll := newMsg(zwmessage.FuncZWSendData, 1, 1)
	query := newMsg(zwmessage.FuncZWSendData, 1, 2)
	command := newMsg(zwmessage.FuncZWSendData, 1, 3)
	ctrl := newMsg(zwmessage.FuncAddNodeToNetwork, 0, 4)

	q.Enqueue(Poll, poll)
	q.Enqueue(Query, query)
	q.Enqueue(Command, command)
	q.Enqueue(Controller, ctrl)

	order := []Priority{Controller, Command, Query, Poll}
	for _, want := range order {
		_, got, ok := q.Dequeue()
		if !ok {
			t.Fatalf("expected a message for band %v", want)
		}
		if got != want {
			t.Fatalf("expected band %v, got %v", want, got)
		}
	}

	if _, _, ok := q.Dequeue(); ok {
		t.Fatalf("expected queue to be empty")
	}
}

func TestEnqueueWithinBandIsFIFO(t *testing.T) {
	q := New()
	a := newMsg(zwmessage.FuncZWSendData, 1, 0xaa)
	b := newMsg(zwmessage.FuncZWSendData, 1, 0xbb)

	q.Enqueue(Command, a)
	q.Enqueue(Command, b)

	first, _, _ := q.Dequeue()
	if first != a {
		t.Fatalf("expected FIFO order within a band")
	}
	second, _, _ := q.Dequeue()
	if second != b {
		t.Fatalf("expected FIFO order within a band")
	}
}

func TestEnqueueDedup(t *testing.T) {
	q := New()
	a := newMsg(zwmessage.FuncZWSendData, 1, 0x20, 0x01, 0xff)
	b := newMsg(zwmessage.FuncZWSendData, 1, 0x20, 0x01, 0xff)

	if !q.Enqueue(Command, a) {
		t.Fatalf("expected first enqueue to succeed")
	}
	if q.Enqueue(Command, b) {
		t.Fatalf("expected duplicate enqueue to be dropped")
	}
	if q.BandLen(Command) != 1 {
		t.Fatalf("expected exactly 1 message queued, got %d", q.BandLen(Command))
	}
}

func TestSleepAndWakeNode(t *testing.T) {
	q := New()

	cmd1 := newMsg(zwmessage.FuncZWSendData, 9, 0x25, 0x01, 0x00)
	cmd2 := newMsg(zwmessage.FuncZWSendData, 9, 0x20, 0x02)
	other := newMsg(zwmessage.FuncZWSendData, 3, 0x25, 0x01, 0xff)
	noMoreInfoMarker := newMsg(zwmessage.FuncZWSendData, 9, 0x84, 0x08)

	q.Enqueue(Command, cmd1)
	q.Enqueue(Query, cmd2)
	q.Enqueue(Command, other)

	isNMI := func(m *zwmessage.Message) bool { return m == noMoreInfoMarker }
	q.SleepNode(9, isNMI)

	if q.WakeupQueueLen(9) != 2 {
		t.Fatalf("expected 2 messages moved to node 9's wake-up queue, got %d", q.WakeupQueueLen(9))
	}
	if q.IsAwake(9) {
		t.Fatalf("expected node 9 to be asleep")
	}
	if q.BandLen(Command) != 1 {
		t.Fatalf("expected node 3's message to remain in Command band, got %d", q.BandLen(Command))
	}
	if q.BandLen(Query) != 0 {
		t.Fatalf("expected node 9's Query message to have been drained")
	}

	noMoreInfo := newMsg(zwmessage.FuncZWSendData, 9, 0x84, 0x08)
	q.WakeNode(9, noMoreInfo)

	if !q.IsAwake(9) {
		t.Fatalf("expected node 9 to be awake after WakeNode")
	}
	if q.WakeupQueueLen(9) != 0 {
		t.Fatalf("expected wake-up queue to be drained, got %d", q.WakeupQueueLen(9))
	}

	_, band, ok := q.Dequeue()
	if !ok || band != WakeUp {
		t.Fatalf("expected the first dequeue after waking to come from WakeUp, got band=%v ok=%v", band, ok)
	}
}

func TestSleepNodeDropsWakeUpNoMoreInformation(t *testing.T) {
	q := New()
	nmi := newMsg(zwmessage.FuncZWSendData, 4, 0x84, 0x08)
	q.Enqueue(Command, nmi)

	q.SleepNode(4, func(m *zwmessage.Message) bool { return m == nmi })

	if q.WakeupQueueLen(4) != 0 {
		t.Fatalf("expected WakeUpNoMoreInformation to be dropped, not queued")
	}
}
