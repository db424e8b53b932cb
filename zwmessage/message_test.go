package zwmessage

import (
	"testing"

	"github.com/OpenZWave/open-zwave-sub002/zwframe"
)

func TestIsValidNodeID(t *testing.T) {
	if IsValidNodeID(0) {
		t.Errorf("expected node 0 to be invalid")
	}

	for i := uint8(1); i <= 232; i++ {
		if !IsValidNodeID(i) {
			t.Errorf("expected node %d to be valid", i)
		}
	}

	for i := 233; i <= 255; i++ {
		if IsValidNodeID(uint8(i)) {
			t.Errorf("expected node %d to be invalid", i)
		}
	}

	if IsValidNodeID(BroadcastNodeID) {
		t.Errorf("expected broadcast node ID to be invalid as a target")
	}
}

func TestMessageAppendAndFinalize(t *testing.T) {
	m := New(FuncZWSendData, 5, zwframe.TypeRequest, true, true)
	m.AppendByte(5)
	m.AppendByte(2)
	m.AppendSlice([]uint8{0x20, 0x01, 0xff})
	m.AppendByte(TransmitOptionACK | TransmitOptionAutoRoute)

	if _, err := m.Finalize(); err == nil {
		t.Errorf("expected Finalize to fail before a callback ID is assigned")
	}

	m.AssignCallbackID(7)
	raw, err := m.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	again, err := m.Finalize()
	if err != nil {
		t.Fatalf("second Finalize failed: %v", err)
	}
	if string(raw) != string(again) {
		t.Errorf("Finalize is not idempotent: %v != %v", raw, again)
	}

	if raw[0] != zwframe.ControlSOF {
		t.Errorf("expected frame to start with SOF, got 0x%02x", raw[0])
	}

	id, ok := m.CallbackID()
	if !ok || id != 7 {
		t.Errorf("expected callback ID 7, got %d ok=%v", id, ok)
	}

	if m.SendAttempts() != 0 {
		t.Errorf("expected 0 send attempts before MarkSent, got %d", m.SendAttempts())
	}
	m.MarkSent()
	m.MarkSent()
	if m.SendAttempts() != 2 {
		t.Errorf("expected 2 send attempts, got %d", m.SendAttempts())
	}
}

func TestMessageAppendAfterFinalizePanics(t *testing.T) {
	m := New(FuncGetVersion, 0, zwframe.TypeRequest, true, false)
	if _, err := m.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("expected AppendByte after Finalize to panic")
		}
	}()
	m.AppendByte(1)
}

func TestMessageEqualIgnoresCallbackID(t *testing.T) {
	a := New(FuncZWSendData, 9, zwframe.TypeRequest, true, true)
	a.AppendSlice([]uint8{0x25, 0x01, 0xff})

	b := New(FuncZWSendData, 9, zwframe.TypeRequest, true, true)
	b.AppendSlice([]uint8{0x25, 0x01, 0xff})

	if !a.Equal(b) {
		t.Errorf("expected messages with identical payload to be Equal before callback IDs are assigned")
	}

	a.AssignCallbackID(11)
	b.AssignCallbackID(42)
	if !a.Equal(b) {
		t.Errorf("expected Equal to ignore callback ID even after assignment")
	}

	c := New(FuncZWSendData, 9, zwframe.TypeRequest, true, true)
	c.AppendSlice([]uint8{0x25, 0x01, 0x00})
	if a.Equal(c) {
		t.Errorf("expected messages with different payload to not be Equal")
	}

	d := New(FuncZWSendData, 10, zwframe.TypeRequest, true, true)
	d.AppendSlice([]uint8{0x25, 0x01, 0xff})
	if a.Equal(d) {
		t.Errorf("expected messages with different target node to not be Equal")
	}
}

func TestMessageEncapsulation(t *testing.T) {
	plain := New(FuncZWSendData, 3, zwframe.TypeRequest, true, true)
	plain.AppendSlice([]uint8{0x20, 0x01, 0x63})

	instanced := New(FuncZWSendData, 3, zwframe.TypeRequest, true, true)
	instanced.AppendSlice([]uint8{0x20, 0x01, 0x63})
	instanced.SetInstance(2, 0, 1)

	if plain.Equal(instanced) {
		t.Errorf("expected multi-instance encapsulation to change the comparable payload")
	}

	endpointed := New(FuncZWSendData, 3, zwframe.TypeRequest, true, true)
	endpointed.AppendSlice([]uint8{0x20, 0x01, 0x63})
	endpointed.SetInstance(0, 4, 2)

	if instanced.Equal(endpointed) {
		t.Errorf("expected multi-instance and multi-channel encapsulation to differ")
	}

	instanced.AssignCallbackID(1)
	raw, err := instanced.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected non-empty encoded frame")
	}
}
