// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Backend selection and shared helpers for readiness multiplexers.

package reactor

import (
	"fmt"
	"strings"

	"github.com/momentics/hioload-relay/api"
)

// Kind names a multiplexer backend.
type Kind string

const (
	KindPoll  Kind = "poll"
	KindEpoll Kind = "epoll"
)

// ParseKind converts a user supplied backend name.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindPoll, "":
		return KindPoll, nil
	case KindEpoll:
		return KindEpoll, nil
	}
	return "", fmt.Errorf("reactor: unknown backend %q: %w", s, api.ErrInvalidArgument)
}

// New constructs the multiplexer for the given backend.
func New(kind Kind) (api.Multiplexer, error) {
	switch kind {
	case KindPoll, "":
		return NewPoller()
	case KindEpoll:
		return NewEpoll()
	}
	return nil, fmt.Errorf("reactor: backend %q: %w", kind, api.ErrNotSupported)
}

// multiplexError builds the fatal error returned by Wait.
func multiplexError(op string, err error) error {
	return api.NewError(api.ErrCodeMultiplex, "reactor: "+op).Wrap(err)
}
