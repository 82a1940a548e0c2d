// File: server/server.go
// Package server implements the relay event loop: one goroutine multiplexes
// the acceptor and every client connection, admits new clients while
// capacity remains, services one readable client per iteration and flushes
// the pending broadcast to every client that owes it.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-relay/adapters"
	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/control"
	"github.com/momentics/hioload-relay/internal/logx"
	"github.com/momentics/hioload-relay/internal/registry"
	"github.com/momentics/hioload-relay/internal/relay"
)

var (
	ErrAlreadyRunning = errors.New("server already running")
	ErrServerClosed   = errors.New("server closed")
)

// Server owns the client registry, the relay and the multiplexer. Apart from
// Shutdown, Stats and Snapshot, its methods must be called from a single
// goroutine.
type Server struct {
	cfg      *Config
	acceptor api.Acceptor
	mux      api.Multiplexer
	reg      *registry.Registry
	relay    *relay.Relay
	control  *adapters.ControlAdapter
	metrics  *control.MetricsRegistry
	log      logx.Logger
	buf      []byte

	readSet  []uintptr
	writeSet []uintptr

	running    atomic.Bool
	closing    atomic.Bool
	shutdownCh chan struct{}
	once       sync.Once
}

var _ api.GracefulShutdown = (*Server)(nil)

// NewServer builds an event loop over an already listening acceptor and a
// multiplexer. The server takes ownership of neither: the caller closes them
// after Run returns.
func NewServer(acceptor api.Acceptor, mux api.Multiplexer, cfg *Config, opts ...ServerOption) (*Server, error) {
	if acceptor == nil || mux == nil {
		return nil, fmt.Errorf("server: acceptor and multiplexer are required: %w", api.ErrInvalidArgument)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	s := &Server{
		cfg:        &c,
		acceptor:   acceptor,
		mux:        mux,
		control:    adapters.NewControlAdapter(),
		log:        logx.Nop(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "server: config").Wrap(err)
	}

	reg, err := registry.New(s.cfg.MaxClients)
	if err != nil {
		return nil, api.NewError(api.ErrCodeStartup, "server: registry").Wrap(err)
	}
	s.reg = reg
	s.relay = relay.New(reg, s.cfg.ReadSize)
	s.buf = make([]byte, s.cfg.ReadSize)
	s.readSet = make([]uintptr, 0, s.cfg.MaxClients+1)
	s.writeSet = make([]uintptr, 0, s.cfg.MaxClients)

	s.metrics = s.control.Metrics()
	s.metrics.Set(control.MetricCapacity, reg.Cap())
	s.metrics.Set(control.MetricActiveClients, 0)
	s.control.RegisterDebugProbe("relay.pending", func() any {
		return s.metrics.Int(control.MetricPendingWrites)
	})
	return s, nil
}

// GetControl exposes metrics and debug probes.
func (s *Server) GetControl() api.Control {
	return s.control
}

// Stats returns metrics merged with debug probes.
func (s *Server) Stats() map[string]any {
	return s.control.Stats()
}

// Snapshot returns the typed counters of the loop.
func (s *Server) Snapshot() api.RelayStats {
	m := s.metrics
	started, _ := m.GetSnapshot()[control.MetricStartedAt].(time.Time)
	return api.RelayStats{
		ActiveClients:   m.Int(control.MetricActiveClients),
		Capacity:        m.Int(control.MetricCapacity),
		Iterations:      m.Uint64(control.MetricIterations),
		Admitted:        m.Uint64(control.MetricAdmitted),
		Removed:         m.Uint64(control.MetricRemoved),
		Messages:        m.Uint64(control.MetricMessages),
		InboundTraffic:  m.Uint64(control.MetricBytesIn),
		OutboundTraffic: m.Uint64(control.MetricBytesOut),
		WriteFailures:   m.Uint64(control.MetricWriteFailures),
		StartedAt:       started,
	}
}

// ActiveClients returns the number of occupied slots. Loop goroutine only.
func (s *Server) ActiveClients() int {
	return s.reg.Len()
}

// Shutdown stops Run. It is safe to call from any goroutine and more than
// once.
func (s *Server) Shutdown() error {
	var err error
	s.once.Do(func() {
		s.closing.Store(true)
		close(s.shutdownCh)
		err = s.mux.Wake()
	})
	return err
}
