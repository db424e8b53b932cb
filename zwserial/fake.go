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
	"sync"
	"time"
)

// FakeTransport is an in-memory Transport for tests and for driving the
// transaction engine in examples without real hardware. Written bytes are
// recorded in Sent; bytes queued with Feed are what subsequent Reads
// return.
type FakeTransport struct {
	mutex  sync.Mutex
	cond   *sync.Cond
	opened bool
	inbox  []byte
	Sent   []byte
}

func (f *FakeTransport) init() {
	if f.cond == nil {
		f.cond = sync.NewCond(&f.mutex)
	}
}

// Open marks the fake transport open. Arguments are ignored.
func (f *FakeTransport) Open(path string, baud int, parity Parity, stopBits int) error {
	f.init()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.opened = true
	return nil
}

// Feed appends bytes to the read side, as if the dongle had sent them.
func (f *FakeTransport) Feed(b []byte) {
	f.init()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.inbox = append(f.inbox, b...)
	f.cond.Broadcast()
}

// Read returns queued bytes, blocking until at least one is available or
// the transport is closed.
func (f *FakeTransport) Read(buf []byte) (int, error) {
	f.init()
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for len(f.inbox) == 0 && f.opened {
		f.cond.Wait()
	}
	if len(f.inbox) == 0 {
		return 0, nil
	}

	n := copy(buf, f.inbox)
	f.inbox = f.inbox[n:]
	return n, nil
}

// Write records the bytes written.
func (f *FakeTransport) Write(buf []byte) (int, error) {
	f.init()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.Sent = append(f.Sent, buf...)
	return len(buf), nil
}

// Wait reports whether inbox bytes are already queued, polling briefly
// otherwise.
func (f *FakeTransport) Wait(timeout time.Duration) bool {
	f.init()
	deadline := time.Now().Add(timeout)
	for {
		f.mutex.Lock()
		has := len(f.inbox) > 0
		f.mutex.Unlock()
		if has {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// Close marks the transport closed and wakes any blocked Read.
func (f *FakeTransport) Close() error {
	f.init()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.opened = false
	f.cond.Broadcast()
	return nil
}
