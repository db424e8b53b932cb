// Package zwserial implements the byte-stream Transport contract a Z-Wave
// driver speaks to a USB/serial controller dongle over, plus the default
// POSIX tty backend built on go.bug.st/serial.
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
	"time"
)

// Default serial parameters per spec §4.1.
const (
	DefaultBaud     = 115200
	DefaultDataBits = 8
	DefaultStopBits = 1
)

// Parity matches the three-way parity setting of most serial libraries.
type Parity int

// Parity settings.
const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// Transport is the byte-oriented stream contract C1 defines: open/close a
// device, read/write raw bytes, and signal "data available" with a timeout.
// Implementations must surface a disappeared device as an error from Read
// or Write; the driver treats that as fatal.
type Transport interface {
	// Open opens the underlying device. Safe to call again after Close.
	Open(path string, baud int, parity Parity, stopBits int) error
	// Read reads into buf, returning the number of bytes read. May return
	// 0 bytes with a nil error on a read timeout.
	Read(buf []byte) (int, error)
	// Write writes buf fully or returns an error.
	Write(buf []byte) (int, error)
	// Wait blocks up to timeout for data to become available, returning
	// true if data can be read without further blocking.
	Wait(timeout time.Duration) bool
	// Close closes the underlying device. Idempotent.
	Close() error
}

// ErrDeviceGone is wrapped by Read/Write errors when the OS reports the
// serial device itself disappeared (e.g. USB unplug), so callers can
// distinguish a fatal transport loss from a transient read timeout.
type ErrDeviceGone struct {
	Path string
	Err  error
}

func (e *ErrDeviceGone) Error() string {
	return "zwserial: device " + e.Path + " disappeared: " + e.Err.Error()
}

func (e *ErrDeviceGone) Unwrap() error {
	return e.Err
}
