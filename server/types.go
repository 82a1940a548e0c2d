// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"fmt"

	"github.com/momentics/hioload-relay/api"
)

// Config holds all event loop configuration parameters.
type Config struct {
	MaxClients   int // capacity of the client registry
	ReadSize     int // bytes requested by a single client read
	LogReadiness bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxClients: 16,
		ReadSize:   api.DefaultReadSize,
	}
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	if c.MaxClients <= 0 {
		return fmt.Errorf("max clients %d: %w", c.MaxClients, api.ErrInvalidArgument)
	}
	if c.ReadSize <= 0 {
		return fmt.Errorf("read size %d: %w", c.ReadSize, api.ErrInvalidArgument)
	}
	return nil
}
