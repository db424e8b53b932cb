package zwframe

/*
Copyright (C) 2017 Jan Kasiak

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

import (
	"bytes"
	"testing"
)

func feedAll(d *Decoder, b []byte) []Event {
	var events []Event
	for _, x := range b {
		events = append(events, d.Feed(x))
	}
	return events
}

func TestRoundTrip(t *testing.T) {
	f := Frame{Type: TypeRequest, Func: 0x13, Payload: []uint8{0x05, 0x02, 0x31, 0x04}}

	encoded, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	d := Decoder{}
	var decoded *Frame
	for _, b := range encoded {
		if ev := d.Feed(b); ev.Frame != nil {
			decoded = ev.Frame
		}
	}

	if decoded == nil {
		t.Fatalf("expected a decoded frame")
	}
	if decoded.Type != f.Type || decoded.Func != f.Func || !bytes.Equal(decoded.Payload, f.Payload) {
		t.Errorf("round trip mismatch: got %+v want %+v", decoded, f)
	}
}

func TestControlBytes(t *testing.T) {
	d := Decoder{}
	for _, b := range []uint8{ControlACK, ControlNAK, ControlCAN} {
		ev := d.Feed(b)
		if ev.Control != b {
			t.Errorf("expected Control %#x, got %#x", b, ev.Control)
		}
	}
}

func TestGarbagePrefixThenOneFrame(t *testing.T) {
	f := Frame{Type: TypeResponse, Func: 0x15}
	encoded, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	stream := append([]byte{0x42, 0x43}, encoded...)

	d := Decoder{}
	var frames int
	var naks int
	for _, b := range stream {
		ev := d.Feed(b)
		if ev.NAK {
			naks++
		}
		if ev.Frame != nil {
			frames++
		}
	}

	if frames != 1 {
		t.Errorf("expected exactly one frame, got %d", frames)
	}
	if naks < 1 {
		t.Errorf("expected at least one NAK for garbage prefix")
	}
}

func TestBadChecksum(t *testing.T) {
	f := Frame{Type: TypeRequest, Func: 0x02}
	encoded, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	encoded[len(encoded)-1] ^= 0xff

	d := Decoder{}
	var nak bool
	var frame *Frame
	for _, b := range encoded {
		ev := d.Feed(b)
		if ev.NAK {
			nak = true
		}
		if ev.Frame != nil {
			frame = ev.Frame
		}
	}

	if frame != nil {
		t.Errorf("expected no decoded frame on checksum failure")
	}
	if !nak {
		t.Errorf("expected NAK on checksum failure")
	}
}

func TestMaxBodyLength(t *testing.T) {
	f := Frame{Type: TypeRequest, Func: 0x13, Payload: make([]uint8, MaxBodyLength+1)}
	if _, err := f.Encode(); err == nil {
		t.Errorf("expected error for over-long payload")
	}
}
