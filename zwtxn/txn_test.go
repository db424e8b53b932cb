package zwtxn

import (
	"testing"
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwframe"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
)

type recordingSender struct {
	writes [][]byte
	fail   error
}

func (r *recordingSender) Write(p []byte) (int, error) {
	if r.fail != nil {
		return 0, r.fail
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	r.writes = append(r.writes, cp)
	return len(p), nil
}

func TestEngineNoReplyNoCallback(t *testing.T) {
	sender := &recordingSender{}
	e := New(sender, nil, nil)

	msg := zwmessage.New(zwmessage.FuncSerialAPISoftReset, 0, zwframe.TypeRequest, false, false)
	done, err := e.Submit(msg)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if e.State() != WaitingForAck {
		t.Fatalf("expected WaitingForAck, got %v", e.State())
	}
	if len(sender.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(sender.writes))
	}

	e.OnControl(zwframe.Event{Control: zwframe.ControlACK})
	if e.State() != Idle {
		t.Fatalf("expected Idle after ACK with no reply/callback, got %v", e.State())
	}

	select {
	case out := <-done:
		if out.Err != nil {
			t.Fatalf("unexpected error: %v", out.Err)
		}
	default:
		t.Fatalf("expected outcome to be delivered")
	}
}

func TestEngineResponseThenCallback(t *testing.T) {
	sender := &recordingSender{}
	e := New(sender, nil, nil)

	msg := zwmessage.New(zwmessage.FuncZWSendData, 5, zwframe.TypeRequest, true, true)
	msg.AppendSlice([]uint8{5, 2, 0x20, 0x01, 0xff})

	done, err := e.Submit(msg)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	e.OnControl(zwframe.Event{Control: zwframe.ControlACK})
	if e.State() != WaitingForResponse {
		t.Fatalf("expected WaitingForResponse, got %v", e.State())
	}

	consumed := e.OnFrame(&zwframe.Frame{Type: zwframe.TypeResponse, Func: zwmessage.FuncZWSendData, Payload: []uint8{0x01}})
	if !consumed {
		t.Fatalf("expected matching RESPONSE to be consumed")
	}
	if e.State() != WaitingForCallback {
		t.Fatalf("expected WaitingForCallback, got %v", e.State())
	}

	id, ok := msg.CallbackID()
	if !ok {
		t.Fatalf("expected a callback ID to have been assigned")
	}

	// A non-matching REQUEST frame (wrong callback ID) must not complete it.
	if e.OnFrame(&zwframe.Frame{Type: zwframe.TypeRequest, Func: zwmessage.FuncZWSendData, Payload: []uint8{id + 1, zwmessage.TransmitCompleteOK}}) {
		t.Fatalf("expected mismatched callback ID to not be consumed")
	}
	if e.State() != WaitingForCallback {
		t.Fatalf("expected to remain WaitingForCallback, got %v", e.State())
	}

	if !e.OnFrame(&zwframe.Frame{Type: zwframe.TypeRequest, Func: zwmessage.FuncZWSendData, Payload: []uint8{zwmessage.TransmitCompleteOK, id}}) {
		t.Fatalf("expected matching callback to be consumed")
	}
	if e.State() != Idle {
		t.Fatalf("expected Idle after callback, got %v", e.State())
	}

	select {
	case out := <-done:
		if out.Err != nil {
			t.Fatalf("unexpected error: %v", out.Err)
		}
		if out.Response == nil || out.Callback == nil {
			t.Fatalf("expected both response and callback frames in outcome")
		}
	default:
		t.Fatalf("expected outcome to be delivered")
	}
}

func TestEngineNakRetriesThenExhausts(t *testing.T) {
	sender := &recordingSender{}
	e := New(sender, nil, nil)

	msg := zwmessage.New(zwmessage.FuncGetVersion, 0, zwframe.TypeRequest, true, false)
	done, err := e.Submit(msg)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	for i := 0; i < DefaultRetryBudget-1; i++ {
		e.OnControl(zwframe.Event{Control: zwframe.ControlNAK})
		if e.State() != WaitingForAck {
			t.Fatalf("expected to remain WaitingForAck after NAK retry %d, got %v", i, e.State())
		}
	}

	// One more NAK exhausts the budget (1 initial send + 2 retries = 3 attempts).
	e.OnControl(zwframe.Event{Control: zwframe.ControlNAK})
	if e.State() != Idle {
		t.Fatalf("expected Idle after retry budget exhausted, got %v", e.State())
	}

	select {
	case out := <-done:
		if out.Err == nil {
			t.Fatalf("expected an error after exhausting retries")
		}
	default:
		t.Fatalf("expected outcome to be delivered")
	}

	if len(sender.writes) != DefaultRetryBudget {
		t.Fatalf("expected %d writes (1 send + retries), got %d", DefaultRetryBudget, len(sender.writes))
	}
	for _, w := range sender.writes[1:] {
		if string(w) != string(sender.writes[0]) {
			t.Fatalf("expected retried bytes to be identical (same callback ID)")
		}
	}
}

func TestEngineTimeoutAtWaitingForAck(t *testing.T) {
	sender := &recordingSender{}
	e := New(sender, nil, nil)

	msg := zwmessage.New(zwmessage.FuncGetVersion, 0, zwframe.TypeRequest, true, false)
	if _, err := e.Submit(msg); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	e.armedAt = time.Now().Add(-2 * DefaultAckTimeout)
	if !e.Tick(time.Now()) {
		t.Fatalf("expected Tick to report an expired deadline")
	}
	if e.State() != WaitingForAck {
		t.Fatalf("expected retry to re-arm WaitingForAck, got %v", e.State())
	}
}

type countingObserver struct {
	retries  int
	timeouts int
}

func (c *countingObserver) RecordRetry()   { c.retries++ }
func (c *countingObserver) RecordTimeout() { c.timeouts++ }

func TestEngineObserverCountsNakRetriesAndTimeouts(t *testing.T) {
	sender := &recordingSender{}
	e := New(sender, nil, nil)
	obs := &countingObserver{}
	e.SetObserver(obs)

	msg := zwmessage.New(zwmessage.FuncGetVersion, 0, zwframe.TypeRequest, true, false)
	if _, err := e.Submit(msg); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	e.OnControl(zwframe.Event{Control: zwframe.ControlNAK})
	if obs.retries != 1 || obs.timeouts != 0 {
		t.Fatalf("expected 1 retry and 0 timeouts after a NAK, got retries=%d timeouts=%d", obs.retries, obs.timeouts)
	}

	e.armedAt = time.Now().Add(-2 * DefaultAckTimeout)
	if !e.Tick(time.Now()) {
		t.Fatalf("expected Tick to report an expired deadline")
	}
	if obs.retries != 2 || obs.timeouts != 1 {
		t.Fatalf("expected 2 retries and 1 timeout after a Tick timeout, got retries=%d timeouts=%d", obs.retries, obs.timeouts)
	}
}

func TestEngineBusyRejectsSubmit(t *testing.T) {
	sender := &recordingSender{}
	e := New(sender, nil, nil)

	first := zwmessage.New(zwmessage.FuncGetVersion, 0, zwframe.TypeRequest, true, false)
	if _, err := e.Submit(first); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	second := zwmessage.New(zwmessage.FuncMemoryGetID, 0, zwframe.TypeRequest, true, false)
	if _, err := e.Submit(second); err == nil {
		t.Fatalf("expected Submit to reject a second message while busy")
	}
}

func TestCallbackAllocatorWraps(t *testing.T) {
	c := NewCallbackAllocator()
	if id := c.Next(); id != 10 {
		t.Fatalf("expected first callback ID 10, got %d", id)
	}
	c.next = lastCallbackID
	if id := c.Next(); id != lastCallbackID {
		t.Fatalf("expected %d, got %d", lastCallbackID, id)
	}
	if id := c.Next(); id != firstCallbackID {
		t.Fatalf("expected wrap to %d, got %d", firstCallbackID, id)
	}
}
