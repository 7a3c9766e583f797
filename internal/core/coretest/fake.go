// Package coretest provides an in-memory SignalConnection for tests.
package coretest

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
)

type FakeConn struct {
	id domain.ConnID

	mu         sync.Mutex
	open       bool
	frames     []core.Frame
	pings      int
	closed     bool
	terminated bool
	sendErr    error
}

func NewFakeConn(id string) *FakeConn {
	return &FakeConn{id: domain.ConnID(id), open: true}
}

func (f *FakeConn) ID() domain.ConnID { return f.id }

func (f *FakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return core.ErrConnClosed
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.frames = append(f.frames, append(core.Frame(nil), fr...))
	return nil
}

func (f *FakeConn) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return core.ErrConnClosed
	}
	f.pings++
	return nil
}

func (f *FakeConn) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *FakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.closed = true
}

func (f *FakeConn) Terminate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.terminated = true
}

// Drop marks the transport dead without any close bookkeeping,
// like a network cable being pulled.
func (f *FakeConn) Drop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
}

// FailSends makes every following TrySend return err.
func (f *FakeConn) FailSends(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *FakeConn) Frames() []core.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Frame(nil), f.frames...)
}

// Messages decodes every received frame into a generic map.
func (f *FakeConn) Messages() []map[string]any {
	var out []map[string]any
	for _, fr := range f.Frames() {
		var m map[string]any
		if err := json.Unmarshal(fr, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

func (f *FakeConn) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func (f *FakeConn) Pings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func (f *FakeConn) WasClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeConn) WasTerminated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminated
}
