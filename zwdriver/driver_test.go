package zwdriver

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwframe"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
	"github.com/OpenZWave/open-zwave-sub002/zwqueue"
	"github.com/OpenZWave/open-zwave-sub002/zwserial"
)

func encodeFrame(t *testing.T, typ, fn uint8, payload []byte) []byte {
	t.Helper()
	f := zwframe.Frame{Type: typ, Func: fn, Payload: payload}
	b, err := f.Encode()
	if err != nil {
		t.Fatalf("encoding frame: %v", err)
	}
	return b
}

// feedResponse feeds an ACK followed by the RESPONSE frame the current
// blockingSubmit call is waiting on. blockingSubmit only sends its request
// (synchronously, inside Submit) before it starts reading inbox, so the
// bytes are always queued before anything needs them, whichever side runs
// first.
func feedResponse(t *testing.T, transport *zwserial.FakeTransport, fn uint8, payload []byte) {
	t.Helper()
	transport.Feed([]byte{zwframe.ControlACK})
	transport.Feed(encodeFrame(t, zwframe.TypeResponse, fn, payload))
}

func newTestDriver(t *testing.T) (*Driver, *zwserial.FakeTransport) {
	t.Helper()
	transport := &zwserial.FakeTransport{}
	d := New(Config{DevicePath: "fake", Baud: zwserial.DefaultBaud}, transport, nil)
	return d, transport
}

// bitmapWithNodes builds a SerialAPIGetInitData-style 29-byte node bitmap
// with the given node IDs (1-232) set.
func bitmapWithNodes(nodeIDs ...uint8) []byte {
	bitmap := make([]byte, 29)
	for _, id := range nodeIDs {
		idx := int(id - 1)
		bitmap[idx/8] |= 1 << uint(idx%8)
	}
	return bitmap
}

func TestOpenRunsInitializeHandshake(t *testing.T) {
	d, transport := newTestDriver(t)

	done := make(chan error, 1)
	go func() { done <- d.Open() }()

	feedResponse(t, transport, zwmessage.FuncSerialAPIGetCapabilities, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	feedResponse(t, transport, zwmessage.FuncGetVersion, append([]byte("test library\x00"), 3))

	homeID := []byte{0x01, 0x02, 0x03, 0x04}
	feedResponse(t, transport, zwmessage.FuncMemoryGetID, append(append([]byte{}, homeID...), 1))

	initPayload := append([]byte{1, 0, 29}, bitmapWithNodes(1, 2)...)
	feedResponse(t, transport, zwmessage.FuncSerialAPIGetInitData, initPayload)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Open never returned")
	}
	defer d.Close()

	if !d.IsReady() {
		t.Fatalf("expected driver to be ready")
	}
	if d.OwnNodeID() != 1 {
		t.Fatalf("expected own node ID 1, got %d", d.OwnNodeID())
	}
	if d.HomeID() != 0x01020304 {
		t.Fatalf("expected HomeID 0x01020304, got 0x%08x", d.HomeID())
	}

	if _, ok := d.GetNode(1); ok {
		t.Fatalf("controller's own node ID should not be added to the table")
	}
	node, ok := d.GetNode(2)
	if !ok {
		t.Fatalf("expected node 2 to be discovered")
	}
	if node.Stage() == 0 {
		t.Fatalf("expected node 2's query pipeline to have started")
	}
}

func TestApplicationCommandHandlerDispatchesToNode(t *testing.T) {
	d, transport := newTestDriver(t)
	openDriver(t, d, transport, 1, 2)
	defer d.Close()

	node, ok := d.GetNode(2)
	if !ok {
		t.Fatalf("expected node 2")
	}
	cc, ok := zwcc.New(zwcc.ClassBinarySwitch)
	if !ok {
		t.Fatalf("expected Binary Switch to be registered")
	}
	node.Supported[zwcc.ClassBinarySwitch] = cc

	var events []zwnotify.Notification
	watcherDone := make(chan struct{})
	d.AddWatcher(func(n zwnotify.Notification) {
		events = append(events, n)
		if n.Type == zwnotify.ValueChanged || n.Type == zwnotify.ValueRefreshed {
			close(watcherDone)
		}
	})

	// A Binary Switch Report (class 0x25, command 0x03, value 0xff) from node 2.
	body := []byte{0x02, 2, 3, zwcc.ClassBinarySwitch, 0x03, 0xff}
	transport.Feed(encodeFrame(t, zwframe.TypeRequest, zwmessage.FuncApplicationCommandHandler, body))

	select {
	case <-watcherDone:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a value notification from the Binary Switch Report")
	}
}

func TestWakeUpNotificationDrainsParkedMessages(t *testing.T) {
	d, transport := newTestDriver(t)
	openDriver(t, d, transport, 1, 2)
	defer d.Close()

	node, ok := d.GetNode(2)
	if !ok {
		t.Fatalf("expected node 2")
	}
	node.Listening = false
	d.Queue.Enqueue(zwqueue.Command, zwcc.NewSendData(2, 0x25, []byte{0x01, 0xff}, false))
	d.Queue.SleepNode(2, zwcc.IsWakeUpNoMoreInformation)

	if n := d.Queue.WakeupQueueLen(2); n == 0 {
		t.Fatalf("expected a parked message for node 2")
	}

	body := []byte{0x07}
	transport.Feed(encodeFrame(t, zwframe.TypeRequest, zwmessage.FuncApplicationCommandHandler,
		append([]byte{0x02, 2, byte(1 + len(body)), 0x84}, body...)))

	deadline := time.Now().Add(2 * time.Second)
	for d.Queue.WakeupQueueLen(2) != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := d.Queue.WakeupQueueLen(2); n != 0 {
		t.Fatalf("expected wake-up queue drained, still has %d", n)
	}
}

func TestCloseSavesStateAndOpenRestoresIt(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")

	transport := &zwserial.FakeTransport{}
	d := New(Config{DevicePath: "fake", Baud: zwserial.DefaultBaud, StatePath: statePath}, transport, nil)
	openDriver(t, d, transport, 1, 2)

	node, ok := d.GetNode(2)
	if !ok {
		t.Fatalf("expected node 2")
	}
	node.Name = "Kitchen Light"
	node.Basic = 0x04

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	transport2 := &zwserial.FakeTransport{}
	d2 := New(Config{DevicePath: "fake", Baud: zwserial.DefaultBaud, StatePath: statePath}, transport2, nil)
	openDriver(t, d2, transport2, 1, 2)
	defer d2.Close()

	restored, ok := d2.GetNode(2)
	if !ok {
		t.Fatalf("expected node 2 to be rediscovered")
	}
	if restored.Name != "Kitchen Light" {
		t.Fatalf("expected restored name %q, got %q", "Kitchen Light", restored.Name)
	}
	if restored.Basic != 0x04 {
		t.Fatalf("expected restored basic type 0x04, got 0x%02x", restored.Basic)
	}
}

// openDriver runs the Initialize handshake with a controller own-node ID of
// 1 and the given additional node IDs present in the network, returning
// once Open has completed successfully.
func openDriver(t *testing.T, d *Driver, transport *zwserial.FakeTransport, ownNodeID uint8, otherNodes ...uint8) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- d.Open() }()

	feedResponse(t, transport, zwmessage.FuncSerialAPIGetCapabilities, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	feedResponse(t, transport, zwmessage.FuncGetVersion, append([]byte("test library\x00"), 3))
	feedResponse(t, transport, zwmessage.FuncMemoryGetID, []byte{0x01, 0x02, 0x03, 0x04, ownNodeID})

	all := append([]uint8{}, otherNodes...)
	initPayload := append([]byte{1, 0, 29}, bitmapWithNodes(all...)...)
	feedResponse(t, transport, zwmessage.FuncSerialAPIGetInitData, initPayload)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Open never returned")
	}
}
