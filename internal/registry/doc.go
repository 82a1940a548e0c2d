// File: internal/registry/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package registry implements the fixed-capacity client slot table of the
// relay. A slot is either empty or holds exactly one open connection; the
// registry owns the lifetime of every handle it admits and closes it on
// removal. Slots are always visited in ascending index order, which is the
// only ordering guarantee and the basis of read fairness in the event loop.
//
// The registry is not safe for concurrent use; it is owned by the event
// loop goroutine.
package registry
