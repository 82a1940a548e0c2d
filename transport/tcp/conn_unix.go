//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-relay/api"
)

// Conn is a non-blocking TCP connection handle.
type Conn struct {
	fd     int
	remote string
	closed bool
}

var _ api.NetConn = (*Conn)(nil)

func newConn(fd int, remote string) *Conn {
	return &Conn{fd: fd, remote: remote}
}

// Read performs a single read(2). A zero count with nil error is an orderly
// close by the peer.
func (c *Conn) Read(p []byte) (int, error) {
	if c.closed {
		return 0, api.ErrTransportClosed
	}
	for {
		n, err := unix.Read(c.fd, p)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, api.ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// Write performs a single write(2).
func (c *Conn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, api.ErrTransportClosed
	}
	for {
		n, err := unix.Write(c.fd, p)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, api.ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// Close releases the descriptor. Subsequent calls are no-ops.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return unix.Close(c.fd)
}

// RawFD returns the socket descriptor.
func (c *Conn) RawFD() uintptr { return uintptr(c.fd) }

// RemoteAddr returns the peer address as host:port.
func (c *Conn) RemoteAddr() string { return c.remote }
