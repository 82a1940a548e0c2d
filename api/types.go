// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

import "time"

// DefaultReadSize is the size of a single read from a client.
const DefaultReadSize = 1024

// RelayStats is a point-in-time view of the event loop counters.
type RelayStats struct {
	ActiveClients   int
	Capacity        int
	Iterations      uint64
	Admitted        uint64
	Removed         uint64
	Messages        uint64
	InboundTraffic  uint64 // bytes received
	OutboundTraffic uint64 // bytes sent
	WriteFailures   uint64
	StartedAt       time.Time
}
