// File: cmd/chatserver/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// chatserver relays every chunk received from one TCP client to all
// connected clients, the sender included.
//
//	chatserver [flags] <port> <max_clients>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/internal/logx"
	"github.com/momentics/hioload-relay/reactor"
	"github.com/momentics/hioload-relay/server"
	"github.com/momentics/hioload-relay/transport/tcp"
)

const usage = "Usage: chatserver [flags] <port> <max_clients>\n"

var errUsage = errors.New("usage")

type options struct {
	port          int
	maxClients    int
	backlog       int
	readSize      int
	backend       reactor.Kind
	logLevel      string
	statsInterval time.Duration
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("chatserver", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	opts := &options{}
	var backend string
	fs.IntVar(&opts.backlog, "backlog", tcp.DefaultBacklog, "listen backlog for connections waiting while the relay is full")
	fs.IntVar(&opts.readSize, "buffer", api.DefaultReadSize, "maximum bytes relayed per read")
	fs.StringVar(&backend, "backend", string(reactor.KindPoll), "readiness backend: poll or epoll")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	fs.DurationVar(&opts.statsInterval, "stats-interval", 0, "log relay counters at this interval (0 disables)")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, errUsage
	}

	port, err := strconv.Atoi(fs.Arg(0))
	if err != nil || port <= 0 || port > 65535 {
		fs.Usage()
		return nil, errUsage
	}
	maxClients, err := strconv.Atoi(fs.Arg(1))
	if err != nil || maxClients <= 0 {
		fs.Usage()
		return nil, errUsage
	}
	kind, err := reactor.ParseKind(backend)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return nil, errUsage
	}
	if opts.readSize <= 0 {
		fs.Usage()
		return nil, errUsage
	}
	opts.port, opts.maxClients, opts.backend = port, maxClients, kind
	return opts, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return 1
	}
	log := logx.NewConsole(opts.logLevel)

	ln, err := tcp.Listen(tcp.ListenerConfig{Port: opts.port, Backlog: opts.backlog})
	if err != nil {
		log.Error("listen failed", logx.Int("port", opts.port), logx.Err(err))
		return 1
	}
	defer ln.Close()

	mux, err := reactor.New(opts.backend)
	if err != nil {
		log.Error("multiplexer init failed", logx.String("backend", string(opts.backend)), logx.Err(err))
		return 1
	}
	defer mux.Close()

	cfg := server.DefaultConfig()
	cfg.MaxClients = opts.maxClients
	srv, err := server.NewServer(ln, mux, cfg,
		server.WithLogger(log),
		server.WithReadSize(opts.readSize),
		server.WithReadinessLog(),
	)
	if err != nil {
		log.Error("relay init failed", logx.Err(err))
		return 1
	}

	log.Info("listening",
		logx.String("addr", ln.Addr().String()),
		logx.Int("max_clients", opts.maxClients),
		logx.String("backend", string(opts.backend)))
	notify(log, daemon.SdNotifyReady)

	g, gctx := errgroup.WithContext(ctx)
	loopDone := make(chan struct{})
	g.Go(func() error {
		defer close(loopDone)
		return srv.Run(gctx)
	})
	g.Go(func() error {
		var tick <-chan time.Time
		if opts.statsInterval > 0 {
			t := time.NewTicker(opts.statsInterval)
			defer t.Stop()
			tick = t.C
		}
		for {
			select {
			case <-gctx.Done():
				notify(log, daemon.SdNotifyStopping)
				return nil
			case <-loopDone:
				return nil
			case <-tick:
				st := srv.Snapshot()
				log.Info("relay stats",
					logx.Int("active", st.ActiveClients),
					logx.Uint64("messages", st.Messages),
					logx.Uint64("bytes_in", st.InboundTraffic),
					logx.Uint64("bytes_out", st.OutboundTraffic),
					logx.Uint64("removed", st.Removed))
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Error("relay stopped", logx.Err(err))
		return 1
	}
	log.Info("relay stopped")
	return 0
}

func notify(log logx.Logger, state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Debug("sd_notify failed", logx.Err(err))
	}
}
