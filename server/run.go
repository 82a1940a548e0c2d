// File: server/run.go
// Package server implements the per-iteration phases of the event loop and
// the Run driver with its shutdown path.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"errors"
	"time"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/control"
	"github.com/momentics/hioload-relay/internal/logx"
	"github.com/momentics/hioload-relay/internal/registry"
)

// Run drives the loop until ctx is cancelled, Shutdown is called or the
// multiplexer fails. Every client handle is closed before Run returns. A
// multiplexer failure is returned as is; a requested stop returns nil.
func (s *Server) Run(ctx context.Context) error {
	if s.closing.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	stop := context.AfterFunc(ctx, func() { _ = s.Shutdown() })
	defer stop()
	defer s.closeClients()

	s.metrics.Set(control.MetricStartedAt, time.Now())
	s.log.Info("relay loop started",
		logx.Uintptr("acceptor", s.acceptor.RawFD()),
		logx.Int("capacity", s.reg.Cap()))

	for {
		select {
		case <-s.shutdownCh:
			s.log.Info("relay loop stopping", logx.Int("active", s.reg.Len()))
			return nil
		default:
		}
		if err := s.Step(); err != nil {
			if s.closing.Load() {
				return nil
			}
			return err
		}
	}
}

// Step runs exactly one iteration: readiness, admission, service one
// reader, flush. It returns only fatal errors.
func (s *Server) Step() error {
	s.metrics.Add(control.MetricIterations, 1)

	read, write := s.interest()
	ready, err := s.mux.Wait(read, write)
	if err != nil {
		s.log.Error("readiness wait failed", logx.Err(err))
		return err
	}
	if ready.Woken && s.closing.Load() {
		return nil
	}

	s.admit(ready)
	s.serviceOneReader(ready)
	s.flush()

	s.metrics.Set(control.MetricActiveClients, s.reg.Len())
	s.metrics.Set(control.MetricPendingWrites, s.reg.PendingWrites())
	return nil
}

// interest computes the read and write sets for this iteration. The acceptor
// is left out while the registry is full, so pending connections wait in the
// kernel backlog. Every active client is always watched for reading.
func (s *Server) interest() (read, write []uintptr) {
	read, write = s.readSet[:0], s.writeSet[:0]
	if !s.reg.Full() {
		read = append(read, s.acceptor.RawFD())
	}
	for sl := range s.reg.All() {
		fd := sl.Conn.RawFD()
		read = append(read, fd)
		if sl.PendingWrite {
			write = append(write, fd)
		}
	}
	s.readSet, s.writeSet = read, write
	return read, write
}

func (s *Server) admit(ready api.Readiness) {
	if !ready.Readable.Has(s.acceptor.RawFD()) {
		return
	}
	if s.reg.Full() {
		s.log.Debug("registry full, connection left in backlog", logx.Int("active", s.reg.Len()))
		return
	}
	conn, err := s.acceptor.Accept()
	if errors.Is(err, api.ErrWouldBlock) {
		return
	}
	if err != nil {
		s.log.Warn("accept failed", logx.Err(err))
		return
	}
	idx, err := s.reg.Admit(conn)
	if err != nil {
		s.log.Warn("admission rejected", logx.Uintptr("fd", conn.RawFD()), logx.Err(err))
		_ = conn.Close()
		return
	}
	s.metrics.Add(control.MetricAdmitted, 1)

	sl, _ := s.reg.Get(idx)
	s.log.Info("client connected",
		logx.Int("slot", idx),
		logx.Uintptr("fd", conn.RawFD()),
		logx.String("conn", sl.ID.String()),
		logx.Int("active", s.reg.Len()))
	if s.reg.Full() {
		s.log.Debug("registry full, acceptor paused", logx.Int("capacity", s.reg.Cap()))
	}
}

// serviceOneReader reads from the first readable client in slot order and
// stops there: one message enters the relay per iteration.
func (s *Server) serviceOneReader(ready api.Readiness) {
	var (
		target registry.Slot
		found  bool
	)
	s.reg.ForEachActive(func(sl registry.Slot) bool {
		if ready.Readable.Has(sl.Conn.RawFD()) {
			target, found = sl, true
			return false
		}
		return true
	})
	if !found {
		return
	}
	fd := target.Conn.RawFD()
	if s.cfg.LogReadiness {
		s.log.Debug("client ready to read", logx.Int("slot", target.Index), logx.Uintptr("fd", fd))
	}

	n, err := target.Conn.Read(s.buf)
	switch {
	case errors.Is(err, api.ErrWouldBlock):
		return
	case err != nil:
		s.remove(target, "client read failed", api.NewError(api.ErrCodePeerRead, "read").Wrap(err))
	case n == 0:
		s.remove(target, "client disconnected", nil)
	default:
		s.relay.Publish(s.buf[:n])
		s.metrics.Add(control.MetricMessages, 1)
		s.metrics.Add(control.MetricBytesIn, uint64(n))
		s.log.Debug("message published",
			logx.Int("slot", target.Index),
			logx.Int("bytes", n),
			logx.Int("recipients", s.reg.PendingWrites()))
	}
}

func (s *Server) flush() {
	if s.cfg.LogReadiness {
		for sl := range s.reg.All() {
			if sl.PendingWrite {
				s.log.Debug("client ready to write", logx.Int("slot", sl.Index), logx.Uintptr("fd", sl.Conn.RawFD()))
			}
		}
	}
	res := s.relay.Flush()
	s.metrics.Add(control.MetricBytesOut, res.Bytes)
	for _, f := range res.Failed {
		s.mux.Forget(f.FD)
		s.metrics.Add(control.MetricRemoved, 1)
		s.metrics.Add(control.MetricWriteFailures, 1)
		s.log.Warn("client write failed, removed",
			logx.Int("slot", f.Slot.Index),
			logx.Uintptr("fd", f.FD),
			logx.String("conn", f.Slot.ID.String()),
			logx.Err(f.Err))
	}
}

func (s *Server) remove(sl registry.Slot, msg string, cause error) {
	fd := sl.Conn.RawFD()
	if err := s.reg.Remove(sl.Index); err != nil {
		s.log.Debug("close failed", logx.Uintptr("fd", fd), logx.Err(err))
	}
	s.mux.Forget(fd)
	s.metrics.Add(control.MetricRemoved, 1)
	s.log.Info(msg,
		logx.Int("slot", sl.Index),
		logx.Uintptr("fd", fd),
		logx.String("conn", sl.ID.String()),
		logx.Int("active", s.reg.Len()),
		logx.Err(cause))
}

func (s *Server) closeClients() {
	for sl := range s.reg.All() {
		fd := sl.Conn.RawFD()
		_ = s.reg.Remove(sl.Index)
		s.mux.Forget(fd)
	}
	s.metrics.Set(control.MetricActiveClients, 0)
}
