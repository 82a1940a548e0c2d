//go:build linux

// File: reactor/epoll_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based multiplexer. Level-triggered; the kernel interest
// set is synchronized with the handle sets passed to each Wait.

package reactor

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-relay/api"
)

// epollMultiplexer is an epoll-based api.Multiplexer.
type epollMultiplexer struct {
	epfd     int
	wake     *wakePipe
	interest map[int]uint32
	want     map[int]uint32
	events   []unix.EpollEvent
}

// NewEpoll constructs an epoll multiplexer.
func NewEpoll() (api.Multiplexer, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, api.NewError(api.ErrCodeStartup, "reactor: epoll create").Wrap(err)
	}
	w, err := newWakePipe()
	if err != nil {
		unix.Close(epfd)
		return nil, api.NewError(api.ErrCodeStartup, "reactor: epoll").Wrap(err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(w.r)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, w.r, &ev); err != nil {
		w.close()
		unix.Close(epfd)
		return nil, api.NewError(api.ErrCodeStartup, "reactor: epoll ctl add wake").Wrap(err)
	}
	return &epollMultiplexer{
		epfd:     epfd,
		wake:     w,
		interest: make(map[int]uint32),
		want:     make(map[int]uint32),
		events:   make([]unix.EpollEvent, 16),
	}, nil
}

// sync brings the kernel interest set in line with m.want.
func (m *epollMultiplexer) sync() error {
	for fd := range m.interest {
		if _, ok := m.want[fd]; ok {
			continue
		}
		err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		if err != nil && !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.EBADF) {
			return err
		}
		delete(m.interest, fd)
	}
	for fd, events := range m.want {
		cur, ok := m.interest[fd]
		if ok && cur == events {
			continue
		}
		ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
		op := unix.EPOLL_CTL_ADD
		if ok {
			op = unix.EPOLL_CTL_MOD
		}
		err := unix.EpollCtl(m.epfd, op, fd, &ev)
		if op == unix.EPOLL_CTL_MOD && errors.Is(err, unix.ENOENT) {
			err = unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
		}
		if err != nil {
			return err
		}
		m.interest[fd] = events
	}
	return nil
}

// Wait blocks until events are available on the requested handles.
func (m *epollMultiplexer) Wait(read, write []uintptr) (api.Readiness, error) {
	clear(m.want)
	for _, fd := range read {
		m.want[int(fd)] |= unix.EPOLLIN
	}
	for _, fd := range write {
		m.want[int(fd)] |= unix.EPOLLOUT
	}
	if err := m.sync(); err != nil {
		return api.Readiness{}, multiplexError("epoll ctl", err)
	}
	if need := len(m.interest) + 1; need > len(m.events) {
		m.events = make([]unix.EpollEvent, need)
	}

	var n int
	for {
		var err error
		n, err = unix.EpollWait(m.epfd, m.events, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return api.Readiness{}, multiplexError("epoll wait", err)
		}
		break
	}

	res := api.Readiness{Readable: api.NewHandleSet(), Writable: api.NewHandleSet()}
	for i := 0; i < n; i++ {
		ev := m.events[i]
		fd := int(ev.Fd)
		if fd == m.wake.r {
			m.wake.drain()
			res.Woken = true
			continue
		}
		wanted := m.want[fd]
		failed := ev.Events&(unix.EPOLLERR|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0
		if wanted&unix.EPOLLIN != 0 && (ev.Events&unix.EPOLLIN != 0 || failed) {
			res.Readable.Add(uintptr(fd))
		}
		if wanted&unix.EPOLLOUT != 0 && (ev.Events&unix.EPOLLOUT != 0 || failed) {
			res.Writable.Add(uintptr(fd))
		}
	}
	return res, nil
}

// Forget drops fd from the tracked interest set. It must be called after a
// handle is closed so that a reused descriptor number is registered again.
func (m *epollMultiplexer) Forget(fd uintptr) {
	if _, ok := m.interest[int(fd)]; !ok {
		return
	}
	_ = unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	delete(m.interest, int(fd))
}

// Wake unblocks a concurrent Wait.
func (m *epollMultiplexer) Wake() error {
	return m.wake.signal()
}

// Close closes the epoll instance and the wake pipe.
func (m *epollMultiplexer) Close() error {
	err := m.wake.close()
	if cerr := unix.Close(m.epfd); err == nil {
		err = cerr
	}
	return err
}
