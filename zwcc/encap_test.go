package zwcc

import "testing"

func TestUnwrapPassesThroughPlainClass(t *testing.T) {
	frames, err := Unwrap(ClassBinarySwitch, []byte{0x03, 0xff})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 1 || frames[0].ClassID != ClassBinarySwitch {
		t.Fatalf("expected passthrough single frame, got %+v", frames)
	}
}

func TestUnwrapMultiInstanceEncap(t *testing.T) {
	// cmd=Encap, instance=3, inner class=BinarySwitch, inner body.
	body := []byte{cmdMultiInstanceEncap, 0x03, ClassBinarySwitch, 0x03, 0xff}
	frames, err := Unwrap(ClassMultiInstance, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	f := frames[0]
	if f.Instance != 3 || f.ClassID != ClassBinarySwitch {
		t.Fatalf("expected instance 3 / class binary switch, got %+v", f)
	}
	if len(f.Body) != 2 || f.Body[0] != 0x03 || f.Body[1] != 0xff {
		t.Fatalf("expected inner body preserved, got %v", f.Body)
	}
}

func TestUnwrapMultiChannelEncap(t *testing.T) {
	body := []byte{cmdMultiChannelEncap, 0x00, 0x02, ClassBinarySwitch, 0x03, 0xff}
	frames, err := Unwrap(ClassMultiChannel, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 1 || frames[0].Endpoint != 2 {
		t.Fatalf("expected endpoint 2, got %+v", frames)
	}
}

func TestUnwrapMultiCommandBatch(t *testing.T) {
	// two sub-frames: [BinarySwitch Report 0xff], [Battery Report 0x64]
	sub1 := []byte{ClassBinarySwitch, 0x03, 0xff}
	sub2 := []byte{ClassBattery, 0x03, 0x64}
	body := []byte{cmdMultiCommandEncap, 0x02,
		byte(len(sub1))}
	body = append(body, sub1...)
	body = append(body, byte(len(sub2)))
	body = append(body, sub2...)

	frames, err := Unwrap(ClassMultiCommand, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 sub-frames, got %d", len(frames))
	}
	if frames[0].ClassID != ClassBinarySwitch || frames[1].ClassID != ClassBattery {
		t.Fatalf("unexpected class IDs: %+v", frames)
	}
}

func TestUnwrapMultiCommandTruncatedDropsRest(t *testing.T) {
	sub1 := []byte{ClassBinarySwitch, 0x03, 0xff}
	body := []byte{cmdMultiCommandEncap, 0x02, byte(len(sub1))}
	body = append(body, sub1...)
	// second sub-frame's length byte claims more than remains.
	body = append(body, 0x05)

	frames, err := Unwrap(ClassMultiCommand, body)
	if err == nil {
		t.Fatalf("expected truncation error")
	}
	if len(frames) != 1 {
		t.Fatalf("expected first sub-frame to still be returned, got %d", len(frames))
	}
}
