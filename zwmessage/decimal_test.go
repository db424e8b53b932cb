package zwmessage

import (
	"testing"
	"time"
)

func TestDecodeFloat(t *testing.T) {
	type testCase struct {
		binary    []uint8
		precision uint8
		result    float32
	}

	cases := []testCase{
		{binary: []uint8{0}, precision: 0, result: 0.0},
		{binary: []uint8{0}, precision: 1, result: 0.0},
		{binary: []uint8{0}, precision: 2, result: 0.0},
		{binary: []uint8{23}, precision: 0, result: 23.0},
		{binary: []uint8{23}, precision: 1, result: 2.3},
		{binary: []uint8{23}, precision: 2, result: 0.23},
		{binary: []uint8{252}, precision: 0, result: -4.0},
		{binary: []uint8{252}, precision: 2, result: -0.04},
		{binary: []uint8{127, 255}, precision: 0, result: 32767.0},
		{binary: []uint8{127, 255}, precision: 3, result: 32.767},
		{binary: []uint8{255, 255}, precision: 0, result: -1.0},
		{binary: []uint8{255, 255}, precision: 1, result: -0.1},
		{binary: []uint8{255, 23}, precision: 0, result: -233.0},
		{binary: []uint8{255, 23}, precision: 2, result: -2.33},
	}

	for i, test := range cases {
		if value, err := DecodeFloat(test.binary, test.precision); err != nil || value != test.result {
			t.Errorf("case %d: expected %v, got %v %v", i, test.result, value, err)
		}
	}

	if _, err := DecodeFloat([]uint8{0xff, 0xff, 0xff}, 0); err == nil {
		t.Errorf("decoding a 3-byte field should have failed")
	}
}

func TestEncodeFloatRoundTrip(t *testing.T) {
	type testCase struct {
		value     float32
		precision uint8
		size      uint8
	}

	cases := []testCase{
		{value: 0.0, precision: 0, size: 1},
		{value: 23.0, precision: 0, size: 1},
		{value: 2.3, precision: 1, size: 1},
		{value: -4.0, precision: 0, size: 1},
		{value: -0.04, precision: 2, size: 1},
		{value: 327.67, precision: 2, size: 2},
		{value: -1.0, precision: 0, size: 1},
		{value: -2.33, precision: 2, size: 2},
	}

	for i, test := range cases {
		data, size, err := EncodeFloat(test.value, test.precision)
		if err != nil {
			t.Errorf("case %d: unexpected error: %v", i, err)
			continue
		}
		if size != test.size {
			t.Errorf("case %d: expected size %d, got %d", i, test.size, size)
		}
		back, err := DecodeFloat(data, test.precision)
		if err != nil {
			t.Errorf("case %d: decode failed: %v", i, err)
			continue
		}
		if back != test.value {
			t.Errorf("case %d: round trip mismatch: encoded %v decoded back as %v", i, test.value, back)
		}
	}
}

func TestEncodeDecodeDuration(t *testing.T) {
	for i := uint8(0); i < 128; i++ {
		if value, err := EncodeDuration(time.Second * time.Duration(i)); err != nil || value != i {
			t.Errorf("failed encoding %d seconds: %d %v", i, value, err)
		}
		if DecodeDuration(i) != time.Second*time.Duration(i) {
			t.Errorf("failed to decode byte 0x%02x as seconds", i)
		}
	}

	for i := uint8(3); i < 128; i++ {
		if value, err := EncodeDuration(time.Minute * time.Duration(i)); err != nil || value != i+(0x80-1) {
			t.Errorf("failed encoding %d minutes: %d %v", i, value, err)
		}
		if DecodeDuration(i+(0x80-1)) != time.Minute*time.Duration(i) {
			t.Errorf("failed to decode byte 0x%02x as minutes", i)
		}
	}

	if _, err := EncodeDuration(-time.Second); err == nil {
		t.Errorf("expected negative duration to be rejected")
	}

	if _, err := EncodeDuration(time.Minute * 200); err == nil {
		t.Errorf("expected out-of-range duration to be rejected")
	}
}
