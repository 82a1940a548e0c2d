//go:build !linux

// File: reactor/epoll_other.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"errors"

	"github.com/momentics/hioload-relay/api"
)

// NewEpoll returns an error on platforms without epoll.
func NewEpoll() (api.Multiplexer, error) {
	return nil, errors.Join(errors.New("reactor: epoll is linux only"), api.ErrNotSupported)
}
