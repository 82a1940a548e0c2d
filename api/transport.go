// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines transport socket abstraction (NetConn) and the acceptor contract
// used by the relay event loop.

package api

// NetConn abstracts a full-duplex, non-blocking stream connection.
//
// Read returns (0, nil) when the peer performed an orderly close and
// ErrWouldBlock when no data is available yet. Write returns ErrWouldBlock
// when the kernel send buffer has no room and no byte was written.
type NetConn interface {
	// Read reads into a preallocated buffer
	Read(p []byte) (n int, err error)

	// Write writes buffer contents into the connection
	Write(p []byte) (n int, err error)

	// Close shuts down the connection and releases the OS resource
	Close() error

	// RawFD returns the underlying OS-level file descriptor
	RawFD() uintptr
}

// Acceptor is the listening side owned by the external Listener. The event
// loop only asks it for new connections when its handle is readable.
type Acceptor interface {
	// Accept returns the next pending connection or ErrWouldBlock.
	Accept() (NetConn, error)

	// RawFD returns the listening socket descriptor.
	RawFD() uintptr

	// Close stops listening.
	Close() error
}
