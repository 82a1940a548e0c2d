// Package fake
// Author: momentics <momentics@gmail.com>

package fake

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-relay/api"
)

// Acceptor is an in-memory api.Acceptor with a FIFO backlog of pending
// connections, like a kernel listen queue.
type Acceptor struct {
	mu       sync.Mutex
	fd       uintptr
	nextFD   uintptr
	backlog  *queue.Queue // of *Conn
	conns    map[uintptr]*Conn
	acceptFn func() error
	closed   bool
}

var _ api.Acceptor = (*Acceptor)(nil)

// NewAcceptor creates an acceptor whose own descriptor is fd. Connections
// get descriptors above fd.
func NewAcceptor(fd uintptr) *Acceptor {
	return &Acceptor{
		fd:      fd,
		nextFD:  fd + 1,
		backlog: queue.New(),
		conns:   make(map[uintptr]*Conn),
	}
}

// Dial queues a new connection and returns the handle the test uses as the
// remote peer.
func (a *Acceptor) Dial() *Conn {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := NewConn(a.nextFD)
	a.nextFD++
	a.backlog.Add(c)
	return c
}

// FailAccept installs a hook that may make Accept fail.
func (a *Acceptor) FailAccept(fn func() error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acceptFn = fn
}

// Pending returns the number of connections waiting in the backlog.
func (a *Acceptor) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.backlog.Length()
}

// Accept implements api.Acceptor.
func (a *Acceptor) Accept() (api.NetConn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, api.ErrTransportClosed
	}
	if a.acceptFn != nil {
		if err := a.acceptFn(); err != nil {
			return nil, err
		}
	}
	if a.backlog.Length() == 0 {
		return nil, api.ErrWouldBlock
	}
	c := a.backlog.Remove().(*Conn)
	a.conns[c.fd] = c
	return c, nil
}

// RawFD implements api.Acceptor.
func (a *Acceptor) RawFD() uintptr { return a.fd }

// Close implements api.Acceptor.
func (a *Acceptor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

func (a *Acceptor) lookup(fd uintptr) (*Conn, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.conns[fd]
	return c, ok
}
