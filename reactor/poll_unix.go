//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

// File: reactor/poll_unix.go
// Author: momentics <momentics@gmail.com>
//
// poll(2)-based multiplexer. The descriptor array is rebuilt on every Wait,
// which matches the per-iteration interest sets of the relay loop.

package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-relay/api"
)

const (
	pollReadMask  = unix.POLLIN | unix.POLLHUP | unix.POLLERR | unix.POLLNVAL
	pollErrorMask = unix.POLLHUP | unix.POLLERR | unix.POLLNVAL
)

// pollMultiplexer implements api.Multiplexer with poll(2).
type pollMultiplexer struct {
	wake *wakePipe
	fds  []unix.PollFd
	idx  map[uintptr]int
}

// NewPoller creates a poll(2) multiplexer.
func NewPoller() (api.Multiplexer, error) {
	w, err := newWakePipe()
	if err != nil {
		return nil, api.NewError(api.ErrCodeStartup, "reactor: poll").Wrap(err)
	}
	return &pollMultiplexer{wake: w, idx: make(map[uintptr]int)}, nil
}

func (p *pollMultiplexer) add(fd uintptr, events int16) {
	if i, ok := p.idx[fd]; ok {
		p.fds[i].Events |= events
		return
	}
	p.idx[fd] = len(p.fds)
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: events})
}

// Wait blocks until one of the handles is ready or Wake is called.
func (p *pollMultiplexer) Wait(read, write []uintptr) (api.Readiness, error) {
	p.fds = p.fds[:0]
	clear(p.idx)
	p.fds = append(p.fds, unix.PollFd{Fd: int32(p.wake.r), Events: unix.POLLIN})
	for _, fd := range read {
		p.add(fd, unix.POLLIN)
	}
	for _, fd := range write {
		p.add(fd, unix.POLLOUT)
	}

	for {
		_, err := unix.Poll(p.fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return api.Readiness{}, multiplexError("poll", err)
		}
		break
	}

	res := api.Readiness{Readable: api.NewHandleSet(), Writable: api.NewHandleSet()}
	if p.fds[0].Revents&unix.POLLIN != 0 {
		p.wake.drain()
		res.Woken = true
	}
	for _, pfd := range p.fds[1:] {
		fd := uintptr(pfd.Fd)
		re := pfd.Revents
		if re == 0 {
			continue
		}
		// Errors surface through the read path when reading is of interest,
		// otherwise through the write path, so the slot gets removed.
		if pfd.Events&unix.POLLIN != 0 && re&pollReadMask != 0 {
			res.Readable.Add(fd)
		}
		if pfd.Events&unix.POLLOUT != 0 && re&(unix.POLLOUT|pollErrorMask) != 0 {
			res.Writable.Add(fd)
		}
	}
	return res, nil
}

// Forget is a no-op: poll keeps no kernel-side interest state.
func (p *pollMultiplexer) Forget(uintptr) {}

// Wake unblocks a concurrent Wait.
func (p *pollMultiplexer) Wake() error {
	return p.wake.signal()
}

// Close releases the wake pipe.
func (p *pollMultiplexer) Close() error {
	return p.wake.close()
}
