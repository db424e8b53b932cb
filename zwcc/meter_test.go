package zwcc

import "testing"

func TestParseMeterReportBasic(t *testing.T) {
	// byte0: meterType=1 (electric), rateType=0, no v3 scale extension.
	// byte1: precision=2, scale=0, size=2.
	// value bytes 0x09,0x29 = 2345 at precision 2 -> 23.45.
	data := []byte{0x01, 0x42, 0x09, 0x29}

	res, err := parseMeterReport(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MeterType != MeterTypeElectric {
		t.Fatalf("expected electric meter type, got %d", res.MeterType)
	}
	if res.Value.Value != 23.45 {
		t.Fatalf("expected 23.45, got %v", res.Value.Value)
	}
	if res.Value.Precision != 2 {
		t.Fatalf("expected precision 2, got %d", res.Value.Precision)
	}
	if res.HasDelta {
		t.Fatalf("expected no delta/previous fields for a report this short")
	}
}

func TestParseMeterReportWithDeltaAndPrevious(t *testing.T) {
	// Same header as above, followed by a 2-byte delta time (300s) and a
	// 2-byte previous value (20.00 at precision 2 -> 2000).
	data := []byte{0x01, 0x42, 0x09, 0x29, 0x01, 0x2c, 0x07, 0xd0}

	res, err := parseMeterReport(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasDelta {
		t.Fatalf("expected delta/previous fields to be parsed")
	}
	if res.DeltaTime != 300 {
		t.Fatalf("expected delta time 300, got %d", res.DeltaTime)
	}
	if res.PreviousValue.Value != 20 {
		t.Fatalf("expected previous value 20, got %v", res.PreviousValue.Value)
	}
}

func TestParseMeterReportRejectsBadSize(t *testing.T) {
	// size field claims 4 bytes but only 1 is present.
	data := []byte{0x01, 0x44, 0x00}
	if _, err := parseMeterReport(data); err == nil {
		t.Fatalf("expected error for undersized payload")
	}
}
