package zwmessage

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
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwframe"
)

// ExpectedReply describes what a Message expects back before the
// transaction engine considers it complete: a function code to match, and
// optionally a command-class byte to match within an ApplicationCommand
// payload (for ZWSendData's "did the device reply with this class" case).
type ExpectedReply struct {
	FuncCode     uint8
	HasFunc      bool
	CommandClass uint8
	HasClass     bool
}

// Message is the typed, mutable-until-Finalize outbound frame descriptor
// C3 specifies: target node, function, payload, callback ID, expected
// reply/callback, and a send-attempt counter the transaction engine bumps
// on every (re)send.
type Message struct {
	Function    uint8
	TargetNode  uint8
	Type        uint8 // zwframe.TypeRequest or zwframe.TypeResponse
	Expect      ExpectedReply
	ExpectCallback bool

	payload     []uint8
	instance    uint8
	endpoint    uint8
	encapulated bool

	callbackID   uint8
	hasCallback  bool
	attempts     int
	finalized    bool
	finalBuf     []byte
}

// New constructs a Message. expectReply/expectCallback/expectedClass follow
// §4.3's constructor signature.
func New(function uint8, targetNode uint8, typ uint8, expectReply bool, expectCallback bool, expectedClass ...uint8) *Message {
	m := &Message{
		Function:       function,
		TargetNode:     targetNode,
		Type:           typ,
		ExpectCallback: expectCallback,
	}
	if expectReply {
		m.Expect.HasFunc = true
		m.Expect.FuncCode = function
	}
	if len(expectedClass) > 0 {
		m.Expect.HasClass = true
		m.Expect.CommandClass = expectedClass[0]
	}
	return m
}

// AppendByte appends a single byte to the payload. Must be called before
// Finalize.
func (m *Message) AppendByte(b uint8) {
	if m.finalized {
		panic("zwmessage: AppendByte after Finalize")
	}
	m.payload = append(m.payload, b)
}

// AppendSlice appends bytes to the payload. Must be called before Finalize.
func (m *Message) AppendSlice(b []uint8) {
	if m.finalized {
		panic("zwmessage: AppendSlice after Finalize")
	}
	m.payload = append(m.payload, b...)
}

// SetInstance records the instance (v1 multi-instance) or endpoint (v2
// multi-channel) this message targets within a multi-instance command
// class. Finalize wraps the payload in the corresponding encapsulation
// envelope whenever instance > 1 or endpoint > 0; classVersion is accepted
// but not consulted.
func (m *Message) SetInstance(instance uint8, endpoint uint8, classVersion int) {
	m.instance = instance
	m.endpoint = endpoint
	if instance > 1 || endpoint > 0 {
		m.encapulated = true
	}
	_ = classVersion
}

// Payload returns the application payload appended so far (class ID plus
// command bytes for a ZWSendData message), before encapsulation/callback-ID
// framing. Used by callers that need to recognize a specific outbound
// command, such as the send queue's wake-up-queue drain predicate.
func (m *Message) Payload() []uint8 {
	return m.payload
}

// SendAttempts returns how many times this message has been handed to
// Finalize's caller for transmission.
func (m *Message) SendAttempts() int {
	return m.attempts
}

// MarkSent bumps the send-attempt counter. Called by the transaction engine
// each time the message's bytes are written to the transport.
func (m *Message) MarkSent() {
	m.attempts++
}

// CallbackID returns the assigned callback ID and whether one was assigned.
func (m *Message) CallbackID() (uint8, bool) {
	return m.callbackID, m.hasCallback
}

// AssignCallbackID sets the callback ID. Must be called before Finalize if
// ExpectCallback is true.
func (m *Message) AssignCallbackID(id uint8) {
	m.callbackID = id
	m.hasCallback = true
	m.finalized = false
	m.finalBuf = nil
}

// Finalize fixes LEN and computes CKSUM, inserting the callback ID as the
// final payload byte first if this message requires one. Idempotent: a
// second call with the same callback ID returns the same bytes without
// rebuilding the payload.
func (m *Message) Finalize() ([]byte, error) {
	if m.finalized {
		return m.finalBuf, nil
	}

	body := make([]uint8, len(m.payload))
	copy(body, m.payload)

	if m.encapulated {
		body = m.encapsulate(body)
	}

	if m.ExpectCallback {
		if !m.hasCallback {
			return nil, fmt.Errorf("zwmessage: Finalize called before a callback ID was assigned")
		}
		body = append(body, m.callbackID)
	}

	frame := zwframe.Frame{Type: m.Type, Func: m.Function, Payload: body}
	encoded, err := frame.Encode()
	if err != nil {
		return nil, err
	}

	m.finalBuf = encoded
	m.finalized = true
	return encoded, nil
}

// encapsulate wraps body for a multi-instance (v1) or multi-channel (v2)
// target, per §4.7. v1 multi-instance is used when only Instance is set;
// v2 multi-channel is used when an Endpoint is set.
func (m *Message) encapsulate(body []uint8) []uint8 {
	const (
		classMultiInstance uint8 = 0x60
		classMultiChannel  uint8 = 0x60 // same class ID, differing command
		cmdMultiInstanceEncap uint8 = 0x06
		cmdMultiChannelEncap  uint8 = 0x0d
	)

	if m.endpoint > 0 {
		wrapped := []uint8{classMultiChannel, cmdMultiChannelEncap, 1, m.endpoint}
		return append(wrapped, body...)
	}

	wrapped := []uint8{classMultiInstance, cmdMultiInstanceEncap, m.instance}
	return append(wrapped, body...)
}

// Equal compares two messages for the send-queue dedup rule: equal if
// function, target node and the (possibly encapsulated) payload match,
// excluding the callback ID and checksum. Unlike Finalize, this never
// requires a callback ID to already be assigned, so the send queue can dedup
// messages before they are ever handed to the transaction engine.
func (m *Message) Equal(other *Message) bool {
	if m.Function != other.Function || m.TargetNode != other.TargetNode || m.Type != other.Type {
		return false
	}
	return bytes.Equal(m.matchBody(), other.matchBody())
}

// matchBody returns the payload as it would appear on the wire, minus the
// trailing callback-ID byte.
func (m *Message) matchBody() []uint8 {
	body := make([]uint8, len(m.payload))
	copy(body, m.payload)
	if m.encapulated {
		body = m.encapsulate(body)
	}
	return body
}

// Raw returns the finalized bytes, or nil if Finalize has not been called.
func (m *Message) Raw() []byte {
	return m.finalBuf
}
