// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection layer of the relay.
//
// Provides concurrent-safe state handling primitives including:
//   - Counters and gauges updated by the event loop goroutine
//   - Snapshot reads from any goroutine
//   - Debug probe registration and state export
package control
