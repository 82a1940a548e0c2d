// Package fake
// Author: momentics <momentics@gmail.com>

package fake

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-relay/api"
)

// Conn is an in-memory api.NetConn. The test acts as the remote peer via
// Send and Hangup and inspects what the relay wrote via Received.
type Conn struct {
	mu         sync.Mutex
	fd         uintptr
	inbound    *queue.Queue // of *[]byte
	peerClosed bool
	received   [][]byte
	closed     bool
	closeCalls int
	readErr    error
	writeErr   error
	blocked    bool
	shortBy    int
}

var _ api.NetConn = (*Conn)(nil)

// NewConn creates a connection with the given descriptor number.
func NewConn(fd uintptr) *Conn {
	return &Conn{fd: fd, inbound: queue.New()}
}

// Send queues data as if the peer had written it.
func (c *Conn) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chunk := append([]byte(nil), data...)
	c.inbound.Add(&chunk)
}

// Hangup simulates an orderly close by the peer.
func (c *Conn) Hangup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peerClosed = true
}

// FailReads makes every subsequent Read return err.
func (c *Conn) FailReads(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

// FailWrites makes every subsequent Write return err.
func (c *Conn) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

// BlockWrites toggles a full send buffer: Write returns api.ErrWouldBlock
// and the handle is never reported writable.
func (c *Conn) BlockWrites(blocked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocked = blocked
}

// ShortWrites makes Write accept n fewer bytes than offered.
func (c *Conn) ShortWrites(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shortBy = n
}

// Read implements api.NetConn.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, api.ErrTransportClosed
	}
	if c.readErr != nil {
		return 0, c.readErr
	}
	if c.inbound.Length() > 0 {
		chunk := c.inbound.Peek().(*[]byte)
		n := copy(p, *chunk)
		if n == len(*chunk) {
			c.inbound.Remove()
		} else {
			*chunk = (*chunk)[n:]
		}
		return n, nil
	}
	if c.peerClosed {
		return 0, nil
	}
	return 0, api.ErrWouldBlock
}

// Write implements api.NetConn.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, api.ErrTransportClosed
	}
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	if c.blocked {
		return 0, api.ErrWouldBlock
	}
	n := len(p) - c.shortBy
	if n < 0 {
		n = 0
	}
	c.received = append(c.received, append([]byte(nil), p[:n]...))
	return n, nil
}

// Close implements api.NetConn.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCalls++
	c.closed = true
	return nil
}

// RawFD implements api.NetConn.
func (c *Conn) RawFD() uintptr { return c.fd }

// Received returns every chunk written to the connection, one per Write.
func (c *Conn) Received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.received))
	copy(out, c.received)
	return out
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// CloseCalls returns how many times Close was called.
func (c *Conn) CloseCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCalls
}

func (c *Conn) readable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	return c.inbound.Length() > 0 || c.peerClosed || c.readErr != nil
}

func (c *Conn) writable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	return !c.blocked || c.writeErr != nil
}
