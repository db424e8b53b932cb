package zwserial

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
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// TTYTransport is the default POSIX tty Transport, backed by go.bug.st/serial.
type TTYTransport struct {
	mutex sync.Mutex
	port  serial.Port
	path  string

	readTimeout time.Duration
	pending     []byte // bytes probed by Wait, not yet returned by Read
}

// ReadTimeout controls how long a single Read call blocks for data before
// returning 0, nil. Defaults to 200ms if unset, which is short enough for
// Wait's polling loop to stay responsive.
func (t *TTYTransport) ReadTimeout() time.Duration {
	if t.readTimeout == 0 {
		return 200 * time.Millisecond
	}
	return t.readTimeout
}

// SetReadTimeout overrides the read timeout. Must be called before Open.
func (t *TTYTransport) SetReadTimeout(d time.Duration) {
	t.readTimeout = d
}

func parityFlag(p Parity) serial.Parity {
	switch p {
	case ParityOdd:
		return serial.OddParity
	case ParityEven:
		return serial.EvenParity
	default:
		return serial.NoParity
	}
}

func stopBitsFlag(stopBits int) serial.StopBits {
	switch stopBits {
	case 2:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}

// Open opens the tty device. baud/parity/stopBits of 0 fall back to the
// defaults in this package (115200 8N1).
func (t *TTYTransport) Open(path string, baud int, parity Parity, stopBits int) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.port != nil {
		return nil
	}

	if baud == 0 {
		baud = DefaultBaud
	}
	if stopBits == 0 {
		stopBits = DefaultStopBits
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   parityFlag(parity),
		StopBits: stopBitsFlag(stopBits),
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return fmt.Errorf("zwserial: open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(t.ReadTimeout()); err != nil {
		port.Close()
		return fmt.Errorf("zwserial: set read timeout on %s: %w", path, err)
	}

	t.port = port
	t.path = path
	return nil
}

// Read satisfies Transport. A zero-length read with a nil error is a
// timeout, not an error.
func (t *TTYTransport) Read(buf []byte) (int, error) {
	t.mutex.Lock()
	if len(t.pending) > 0 {
		n := copy(buf, t.pending)
		t.pending = t.pending[n:]
		t.mutex.Unlock()
		return n, nil
	}
	port := t.port
	path := t.path
	t.mutex.Unlock()

	if port == nil {
		return 0, errors.New("zwserial: transport not open")
	}

	n, err := port.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, &ErrDeviceGone{Path: path, Err: err}
		}
		return 0, err
	}
	return n, nil
}

// Write satisfies Transport, writing buf in full or returning an error.
func (t *TTYTransport) Write(buf []byte) (int, error) {
	t.mutex.Lock()
	port := t.port
	path := t.path
	t.mutex.Unlock()

	if port == nil {
		return 0, errors.New("zwserial: transport not open")
	}

	written := 0
	for written < len(buf) {
		n, err := port.Write(buf[written:])
		if err != nil {
			return written, &ErrDeviceGone{Path: path, Err: err}
		}
		written += n
	}
	return written, nil
}

// Wait polls Read in small increments until data is seen or timeout
// elapses. go.bug.st/serial has no native select/poll primitive, so this
// approximates §4.1's "wait(timeout) -> bool" on top of its blocking
// read-with-deadline behavior.
func (t *TTYTransport) Wait(timeout time.Duration) bool {
	t.mutex.Lock()
	if len(t.pending) > 0 {
		t.mutex.Unlock()
		return true
	}
	port := t.port
	t.mutex.Unlock()

	if port == nil {
		return false
	}

	deadline := time.Now().Add(timeout)
	probe := make([]byte, 1)
	for time.Now().Before(deadline) {
		n, err := port.Read(probe)
		if err != nil {
			return false
		}
		if n > 0 {
			t.mutex.Lock()
			t.pending = append(t.pending, probe[:n]...)
			t.mutex.Unlock()
			return true
		}
	}
	return false
}

// Close closes the tty device. Idempotent.
func (t *TTYTransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}
