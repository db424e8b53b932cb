package zwcc

import (
	"testing"
	"time"
)

func TestSecurityManagerEncapsulateRoundTrips(t *testing.T) {
	var key [16]byte
	for i := range key {
		key[i] = byte(i)
	}
	mgr := NewSecurityManager(key)

	payload := []byte{ClassBinarySwitch, 0x01, 0xff}
	nonceGet := mgr.ArmPending(5, payload)
	if len(nonceGet) != 2 || nonceGet[1] != securityNonceGet {
		t.Fatalf("expected a NonceGet frame, got %v", nonceGet)
	}

	receiverNonce := make([]byte, NonceSize)
	for i := range receiverNonce {
		receiverNonce[i] = byte(0x10 + i)
	}

	body, ok, err := mgr.Encapsulate(5, receiverNonce, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected encapsulation to succeed")
	}
	if body[0] != securityMessageEncap {
		t.Fatalf("expected MessageEncap command byte, got 0x%02x", body[0])
	}
	// sender nonce (8) + ciphertext (3) + receiver nonce echo (1) + HMAC (8)
	if len(body) != 1+NonceSize+len(payload)+1+8 {
		t.Fatalf("unexpected encapsulated body length %d", len(body))
	}
}

func TestSecurityManagerEncapsulateWithoutPendingFails(t *testing.T) {
	var key [16]byte
	mgr := NewSecurityManager(key)
	_, ok, err := mgr.Encapsulate(9, make([]byte, NonceSize), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no pending payload to encapsulate")
	}
}

func TestSecurityManagerRejectsBadNonceSize(t *testing.T) {
	var key [16]byte
	mgr := NewSecurityManager(key)
	mgr.ArmPending(1, []byte{0x01})
	if _, _, err := mgr.Encapsulate(1, []byte{0x01, 0x02}, time.Now()); err == nil {
		t.Fatalf("expected error for wrong-length nonce")
	}
}

func TestSecurityManagerDropsAfterTimeout(t *testing.T) {
	var key [16]byte
	mgr := NewSecurityManager(key)
	mgr.ArmPending(2, []byte{0x01})
	later := time.Now().Add(NonceTimeout + time.Second)
	_, ok, err := mgr.Encapsulate(2, make([]byte, NonceSize), later)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected handshake to be dropped after timeout")
	}
}
