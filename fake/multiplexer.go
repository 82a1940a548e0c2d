// Package fake
// Author: momentics <momentics@gmail.com>

package fake

import (
	"errors"
	"slices"
	"sync"

	"github.com/momentics/hioload-relay/api"
)

// ErrIdle is returned by Multiplexer.Wait when nothing is ready; a real
// multiplexer would block forever in that state.
var ErrIdle = errors.New("fake: no handle ready, wait would block forever")

// Multiplexer computes readiness from the state of the fake acceptor and
// the connections it handed out. It never blocks.
type Multiplexer struct {
	mu        sync.Mutex
	acc       *Acceptor
	wakeCh    chan struct{}
	blockIdle bool
	err       error
	calls     int
	lastRead  []uintptr
	lastWrite []uintptr
	forgotten []uintptr
	closed    bool
}

var _ api.Multiplexer = (*Multiplexer)(nil)

// NewMultiplexer observes acc and every connection accepted from it.
func NewMultiplexer(acc *Acceptor) *Multiplexer {
	return &Multiplexer{acc: acc, wakeCh: make(chan struct{}, 1)}
}

// BlockWhenIdle makes Wait block until Wake instead of returning ErrIdle.
func (m *Multiplexer) BlockWhenIdle(block bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockIdle = block
}

// Fail makes every subsequent Wait return err.
func (m *Multiplexer) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Wait implements api.Multiplexer.
func (m *Multiplexer) Wait(read, write []uintptr) (api.Readiness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastRead = slices.Clone(read)
	m.lastWrite = slices.Clone(write)
	if m.err != nil {
		return api.Readiness{}, api.NewError(api.ErrCodeMultiplex, "fake: wait").Wrap(m.err)
	}

	res := api.Readiness{Readable: api.NewHandleSet(), Writable: api.NewHandleSet()}
	for _, fd := range read {
		if fd == m.acc.RawFD() {
			if m.acc.Pending() > 0 {
				res.Readable.Add(fd)
			}
			continue
		}
		if c, ok := m.acc.lookup(fd); ok && c.readable() {
			res.Readable.Add(fd)
		}
	}
	for _, fd := range write {
		if c, ok := m.acc.lookup(fd); ok && c.writable() {
			res.Writable.Add(fd)
		}
	}
	select {
	case <-m.wakeCh:
		res.Woken = true
		return res, nil
	default:
	}
	if res.Readable.Len() == 0 && res.Writable.Len() == 0 {
		if !m.blockIdle {
			return res, ErrIdle
		}
		m.mu.Unlock()
		<-m.wakeCh
		m.mu.Lock()
		res.Woken = true
	}
	return res, nil
}

// Forget implements api.Multiplexer.
func (m *Multiplexer) Forget(fd uintptr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forgotten = append(m.forgotten, fd)
}

// Wake implements api.Multiplexer.
func (m *Multiplexer) Wake() error {
	select {
	case m.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// Close implements api.Multiplexer.
func (m *Multiplexer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// LastRead returns the read set of the most recent Wait.
func (m *Multiplexer) LastRead() []uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.lastRead)
}

// LastWrite returns the write set of the most recent Wait.
func (m *Multiplexer) LastWrite() []uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.lastWrite)
}

// Forgotten returns every descriptor passed to Forget.
func (m *Multiplexer) Forgotten() []uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.forgotten)
}

// Calls returns the number of Wait calls.
func (m *Multiplexer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
