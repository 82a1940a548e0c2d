//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"errors"
	"net"

	"github.com/momentics/hioload-relay/api"
)

// DefaultBacklog mirrors the classic "five queued connection requests".
const DefaultBacklog = 5

// ListenerConfig holds configuration for the TCP listener.
type ListenerConfig struct {
	Host    string
	Port    int
	Backlog int
}

// Listener is unavailable on this platform.
type Listener struct{}

// Listen returns an error for unsupported platforms.
func Listen(ListenerConfig) (*Listener, error) {
	return nil, errors.Join(errors.New("tcp: raw listener is not supported on this platform"), api.ErrNotSupported)
}

func (l *Listener) Addr() *net.TCPAddr          { return nil }
func (l *Listener) RawFD() uintptr              { return 0 }
func (l *Listener) Accept() (api.NetConn, error) { return nil, api.ErrNotSupported }
func (l *Listener) Close() error                { return nil }
