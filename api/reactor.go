// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the readiness multiplexer contract used by the relay event loop
// across poll-mode backends (poll, epoll).

package api

// HandleSet is a set of OS handles.
type HandleSet map[uintptr]struct{}

// NewHandleSet builds a set from the given handles.
func NewHandleSet(fds ...uintptr) HandleSet {
	s := make(HandleSet, len(fds))
	for _, fd := range fds {
		s[fd] = struct{}{}
	}
	return s
}

// Add inserts fd.
func (s HandleSet) Add(fd uintptr) { s[fd] = struct{}{} }

// Has reports whether fd is in the set.
func (s HandleSet) Has(fd uintptr) bool {
	_, ok := s[fd]
	return ok
}

// Len returns the number of handles.
func (s HandleSet) Len() int { return len(s) }

// Readiness is the result of one Multiplexer.Wait call.
type Readiness struct {
	Readable HandleSet
	Writable HandleSet
	// Woken is set when Wait returned because of Wake.
	Woken bool
}

// Multiplexer blocks until at least one handle is ready. It is the only
// suspension point of the event loop.
type Multiplexer interface {
	// Wait blocks without timeout until a handle in read is readable, a
	// handle in write is writable, or Wake is called. Errors are fatal.
	Wait(read, write []uintptr) (Readiness, error)

	// Forget drops any state kept for a handle that has been closed.
	Forget(fd uintptr)

	// Wake unblocks a concurrent Wait. Safe to call from any goroutine.
	Wake() error

	// Close releases the backend.
	Close() error
}
