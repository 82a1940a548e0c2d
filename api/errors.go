// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-relay.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the relay.
var (
	ErrInvalidArgument  = fmt.Errorf("invalid argument")
	ErrNotSupported     = fmt.Errorf("operation not supported")
	ErrAlreadyExists    = fmt.Errorf("resource already exists")
	ErrTransportClosed  = fmt.Errorf("transport is closed")
	ErrCapacityExceeded = fmt.Errorf("capacity exceeded")
	ErrWouldBlock       = fmt.Errorf("operation would block")
	ErrPeerClosed       = fmt.Errorf("peer closed connection")
	ErrPeerWrite        = fmt.Errorf("peer write failed")
	ErrShortWrite       = fmt.Errorf("short write")
	ErrMultiplex        = fmt.Errorf("readiness multiplexing failed")
)

// ErrorCode represents specific error conditions in the relay.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeStartup
	ErrCodeMultiplex
	ErrCodePeerRead
	ErrCodePeerWrite
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeStartup:
		return "startup"
	case ErrCodeMultiplex:
		return "multiplex"
	case ErrCodePeerRead:
		return "peer_read"
	case ErrCodePeerWrite:
		return "peer_write"
	default:
		return "internal"
	}
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel that corresponds to the error code, so that
// errors.Is(err, ErrMultiplex) holds for multiplexer failures.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case ErrCodeMultiplex:
		return target == ErrMultiplex
	case ErrCodeInvalidArgument:
		return target == ErrInvalidArgument
	case ErrCodePeerWrite:
		return target == ErrPeerWrite
	}
	return false
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// Wrap attaches a cause to the error.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsFatal reports whether err must stop the event loop. Only multiplexer
// and startup failures are fatal; everything peer-related is slot-local.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeMultiplex || e.Code == ErrCodeStartup
	}
	return errors.Is(err, ErrMultiplex)
}
