package zwcc

import "testing"

func TestParseMultiLevelSensorReport(t *testing.T) {
	// sensorType=1 (Temperature), precision=1, scale=0 (C), size=2,
	// value bytes 0x00,0xd2 = 210 at precision 1 -> 21.0.
	data := []byte{0x01, 0x22, 0x00, 0xd2}

	res, err := parseMultiLevelSensorReport(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SensorType != MultiLevelSensorTypeTemperature {
		t.Fatalf("expected temperature, got %d", res.SensorType)
	}
	if res.Value.Value != 21.0 {
		t.Fatalf("expected 21.0, got %v", res.Value.Value)
	}
}

func TestDecodeBitmapListIsOneIndexed(t *testing.T) {
	// bit 0 and bit 3 of the first byte set -> types 1 and 4.
	got := decodeBitmapList([]byte{0b00001001})
	if len(got) != 2 || got[0] != 1 || got[1] != 4 {
		t.Fatalf("expected [1 4], got %v", got)
	}
}
