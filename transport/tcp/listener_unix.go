//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-relay/api"
)

// DefaultBacklog mirrors the classic "five queued connection requests".
const DefaultBacklog = 5

// ListenerConfig holds configuration for the TCP listener.
type ListenerConfig struct {
	Host    string // IPv4 address to bind, empty means INADDR_ANY
	Port    int    // TCP port, 0 picks an ephemeral port
	Backlog int    // listen(2) backlog, <= 0 means DefaultBacklog
}

// Listener is a bound, listening, non-blocking TCP socket.
type Listener struct {
	fd   int
	addr *net.TCPAddr
}

var _ api.Acceptor = (*Listener)(nil)

// Listen creates, binds and listens on the configured address.
func Listen(cfg ListenerConfig) (*Listener, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("tcp listen: port %d: %w", cfg.Port, api.ErrInvalidArgument)
	}
	sa := &unix.SockaddrInet4{Port: cfg.Port}
	if cfg.Host != "" {
		ip := net.ParseIP(cfg.Host).To4()
		if ip == nil {
			return nil, fmt.Errorf("tcp listen: host %q: %w", cfg.Host, api.ErrInvalidArgument)
		}
		copy(sa.Addr[:], ip)
	}
	backlog := cfg.Backlog
	if backlog <= 0 {
		backlog = DefaultBacklog
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, startupError("socket", err)
	}
	unix.CloseOnExec(fd)
	if err := setup(fd, sa, backlog); err != nil {
		unix.Close(fd)
		return nil, err
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, startupError("getsockname", err)
	}
	l := &Listener{fd: fd, addr: &net.TCPAddr{IP: net.IPv4zero, Port: cfg.Port}}
	if in4, ok := bound.(*unix.SockaddrInet4); ok {
		l.addr = &net.TCPAddr{IP: net.IP(in4.Addr[:]).To16(), Port: in4.Port}
	}
	return l, nil
}

func setup(fd int, sa *unix.SockaddrInet4, backlog int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return startupError("setsockopt", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return startupError("nonblock", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		return startupError("bind", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return startupError("listen", err)
	}
	return nil
}

func startupError(op string, err error) error {
	return api.NewError(api.ErrCodeStartup, "tcp "+op).Wrap(err)
}

// Addr returns the bound address.
func (l *Listener) Addr() *net.TCPAddr { return l.addr }

// RawFD returns the listening descriptor.
func (l *Listener) RawFD() uintptr { return uintptr(l.fd) }

// Accept takes one pending connection off the backlog. It returns
// api.ErrWouldBlock when the backlog is empty.
func (l *Listener) Accept() (api.NetConn, error) {
	for {
		nfd, sa, err := unix.Accept(l.fd)
		switch err {
		case nil:
		case unix.EINTR:
			continue
		case unix.EAGAIN, unix.ECONNABORTED:
			return nil, api.ErrWouldBlock
		default:
			return nil, fmt.Errorf("tcp accept: %w", err)
		}
		unix.CloseOnExec(nfd)
		if err := unix.SetNonblock(nfd, true); err != nil {
			unix.Close(nfd)
			return nil, fmt.Errorf("tcp accept nonblock: %w", err)
		}
		return newConn(nfd, sockaddrString(sa)), nil
	}
}

// Close stops listening.
func (l *Listener) Close() error {
	return unix.Close(l.fd)
}

func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	}
	return ""
}
