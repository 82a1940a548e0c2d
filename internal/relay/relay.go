// File: internal/relay/relay.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package relay holds the single pending broadcast message and fans it out
// to every client slot flagged writable in the registry.
package relay

import (
	"errors"
	"fmt"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/internal/registry"
)

// Message is the one pending broadcast payload.
type Message struct {
	payload []byte
}

// Bytes returns the payload. The slice is owned by the relay and is only
// valid until the next Publish.
func (m Message) Bytes() []byte { return m.payload }

// Len returns the payload length.
func (m Message) Len() int { return len(m.payload) }

// Failure records a peer removed during Flush.
type Failure struct {
	Slot registry.Slot
	FD   uintptr
	Err  error
}

// FlushResult summarizes one Flush call.
type FlushResult struct {
	Delivered int
	Bytes     uint64
	Failed    []Failure
}

// Relay implements the "exactly one pending message, sent to every active
// client" policy on top of a registry.
type Relay struct {
	reg *registry.Registry
	msg Message
	buf []byte
}

// New creates a relay bound to reg. sizeHint preallocates the message buffer.
func New(reg *registry.Registry, sizeHint int) *Relay {
	if sizeHint <= 0 {
		sizeHint = api.DefaultReadSize
	}
	return &Relay{reg: reg, buf: make([]byte, 0, sizeHint)}
}

// Publish replaces the pending message with a copy of payload and flags
// every active slot writable, the sender included. An empty payload is
// ignored.
func (r *Relay) Publish(payload []byte) Message {
	if len(payload) == 0 {
		return r.msg
	}
	r.buf = append(r.buf[:0], payload...)
	r.msg = Message{payload: r.buf}
	for s := range r.reg.All() {
		r.reg.MarkWritable(s.Index)
	}
	return r.msg
}

// Pending returns the current message and whether any slot still owes it.
func (r *Relay) Pending() (Message, bool) {
	return r.msg, r.reg.PendingWrites() > 0
}

// Flush writes the pending message to every writable slot, one write per
// slot. A peer that does not take the whole message in that write is
// removed from the registry and flushing continues with the remaining
// slots. A full send buffer counts as a failure: no slot owes the message
// once Flush returns.
func (r *Relay) Flush() FlushResult {
	var res FlushResult
	if r.reg.PendingWrites() == 0 {
		return res
	}
	payload := r.msg.Bytes()
	r.reg.ForEachActive(func(s registry.Slot) bool {
		if !s.PendingWrite {
			return true
		}
		n, err := s.Conn.Write(payload)
		switch {
		case err == nil && n == len(payload):
			r.reg.ClearWritable(s.Index)
			res.Delivered++
			res.Bytes += uint64(n)
		default:
			if err == nil {
				err = fmt.Errorf("%w: %d of %d bytes", api.ErrShortWrite, n, len(payload))
			}
			fd := s.Conn.RawFD()
			if cerr := r.reg.Remove(s.Index); cerr != nil {
				err = errors.Join(err, cerr)
			}
			res.Bytes += uint64(max(n, 0))
			res.Failed = append(res.Failed, Failure{
				Slot: s,
				FD:   fd,
				Err:  api.NewError(api.ErrCodePeerWrite, "relay: write").Wrap(err).WithContext("slot", s.Index),
			})
		}
		return true
	})
	return res
}
