//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import (
	"errors"

	"github.com/momentics/hioload-relay/api"
)

// NewPoller returns an error for unsupported platforms.
func NewPoller() (api.Multiplexer, error) {
	return nil, errors.Join(errors.New("reactor: this platform is not supported"), api.ErrNotSupported)
}
