// File: internal/registry/registry.go
// Author: momentics <momentics@gmail.com>
//
// Fixed-size slot table with lowest-free-index admission.

package registry

import (
	"fmt"
	"iter"

	"github.com/google/uuid"

	"github.com/momentics/hioload-relay/api"
)

// Slot is a read-only view of an occupied registry position.
type Slot struct {
	Index        int
	ID           uuid.UUID
	Conn         api.NetConn
	PendingWrite bool
}

type slot struct {
	conn         api.NetConn
	id           uuid.UUID
	pendingWrite bool
}

// Registry is a fixed-capacity table of client slots.
type Registry struct {
	slots   []slot
	active  int
	pending int
	byFD    map[uintptr]int
}

// New allocates a registry with capacity empty slots.
func New(capacity int) (*Registry, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("registry: capacity %d: %w", capacity, api.ErrInvalidArgument)
	}
	return &Registry{
		slots: make([]slot, capacity),
		byFD:  make(map[uintptr]int, capacity),
	}, nil
}

// Cap returns the number of slots.
func (r *Registry) Cap() int { return len(r.slots) }

// Len returns the number of occupied slots.
func (r *Registry) Len() int { return r.active }

// Full reports whether every slot is occupied.
func (r *Registry) Full() bool { return r.active == len(r.slots) }

// Admit places conn into the lowest empty slot and returns its index.
// It fails with api.ErrCapacityExceeded when the registry is full.
func (r *Registry) Admit(conn api.NetConn) (int, error) {
	if conn == nil {
		return -1, fmt.Errorf("registry: nil connection: %w", api.ErrInvalidArgument)
	}
	if r.Full() {
		return -1, api.ErrCapacityExceeded
	}
	fd := conn.RawFD()
	if i, ok := r.byFD[fd]; ok {
		return -1, fmt.Errorf("registry: fd %d already in slot %d: %w", fd, i, api.ErrAlreadyExists)
	}
	for i := range r.slots {
		if r.slots[i].conn != nil {
			continue
		}
		r.slots[i] = slot{conn: conn, id: uuid.New()}
		r.byFD[fd] = i
		r.active++
		return i, nil
	}
	// unreachable while active mirrors the occupied slots
	return -1, api.ErrCapacityExceeded
}

// Remove closes the handle in slot i and frees the slot. Removing an empty
// or out-of-range slot is a no-op. The close error, if any, is returned
// after the slot has been freed.
func (r *Registry) Remove(i int) error {
	if i < 0 || i >= len(r.slots) || r.slots[i].conn == nil {
		return nil
	}
	s := r.slots[i]
	if s.pendingWrite {
		r.pending--
	}
	delete(r.byFD, s.conn.RawFD())
	r.slots[i] = slot{}
	r.active--
	return s.conn.Close()
}

// Get returns the occupied slot i.
func (r *Registry) Get(i int) (Slot, bool) {
	if i < 0 || i >= len(r.slots) || r.slots[i].conn == nil {
		return Slot{}, false
	}
	return r.view(i), true
}

func (r *Registry) view(i int) Slot {
	s := r.slots[i]
	return Slot{Index: i, ID: s.id, Conn: s.conn, PendingWrite: s.pendingWrite}
}

// ForEachActive calls fn for each occupied slot in ascending index order
// until fn returns false. fn may remove the slot it is given.
func (r *Registry) ForEachActive(fn func(Slot) bool) {
	for i := range r.slots {
		if r.slots[i].conn == nil {
			continue
		}
		if !fn(r.view(i)) {
			return
		}
	}
}

// All returns a restartable iterator over occupied slots in ascending order.
func (r *Registry) All() iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		r.ForEachActive(yield)
	}
}

// MarkWritable flags slot i as owing the pending message.
func (r *Registry) MarkWritable(i int) {
	if i < 0 || i >= len(r.slots) || r.slots[i].conn == nil || r.slots[i].pendingWrite {
		return
	}
	r.slots[i].pendingWrite = true
	r.pending++
}

// ClearWritable drops the pending-write flag of slot i.
func (r *Registry) ClearWritable(i int) {
	if i < 0 || i >= len(r.slots) || !r.slots[i].pendingWrite {
		return
	}
	r.slots[i].pendingWrite = false
	r.pending--
}

// Writable reports whether slot i owes the pending message.
func (r *Registry) Writable(i int) bool {
	return i >= 0 && i < len(r.slots) && r.slots[i].pendingWrite
}

// PendingWrites returns the number of slots flagged writable.
func (r *Registry) PendingWrites() int { return r.pending }

// Close removes every occupied slot and returns the first close error.
func (r *Registry) Close() error {
	var first error
	for i := range r.slots {
		if err := r.Remove(i); err != nil && first == nil {
			first = err
		}
	}
	return first
}
