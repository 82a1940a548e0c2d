// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import "github.com/momentics/hioload-relay/internal/logx"

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger sets the structured logger.
func WithLogger(log logx.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// WithReadSize overrides the per-read buffer size.
func WithReadSize(n int) ServerOption {
	return func(s *Server) {
		s.cfg.ReadSize = n
	}
}

// WithReadinessLog emits a debug line for every readable or writable client,
// like the classic select-loop chat server did.
func WithReadinessLog() ServerOption {
	return func(s *Server) {
		s.cfg.LogReadiness = true
	}
}
