//go:build linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// End-to-end relay over real TCP sockets and both multiplexer backends.

package server_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-relay/reactor"
	"github.com/momentics/hioload-relay/server"
	"github.com/momentics/hioload-relay/transport/tcp"
)

type relayFixture struct {
	srv  *server.Server
	addr string
	done chan error
	stop context.CancelFunc
}

func startRelay(t *testing.T, kind reactor.Kind, maxClients int) *relayFixture {
	t.Helper()
	ln, err := tcp.Listen(tcp.ListenerConfig{Host: "127.0.0.1"})
	require.NoError(t, err)
	mux, err := reactor.New(kind)
	require.NoError(t, err)

	cfg := server.DefaultConfig()
	cfg.MaxClients = maxClients
	srv, err := server.NewServer(ln, mux, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	f := &relayFixture{srv: srv, addr: ln.Addr().String(), done: make(chan error, 1), stop: cancel}
	go func() { f.done <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-f.done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("relay did not stop")
		}
		mux.Close()
		ln.Close()
	})
	return f
}

func (f *relayFixture) dial(t *testing.T) net.Conn {
	t.Helper()
	c, err := net.DialTimeout("tcp", f.addr, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func (f *relayFixture) waitActive(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.srv.Snapshot().ActiveClients == n
	}, 2*time.Second, 5*time.Millisecond)
}

func expect(t *testing.T, c net.Conn, want string) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	got := make([]byte, len(want))
	_, err := io.ReadFull(c, got)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}

func expectSilence(t *testing.T, c net.Conn) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	buf := make([]byte, 1)
	_, err := c.Read(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrDeadlineExceeded), "unexpected: %v", err)
}

// watchFor drains c in the background and closes the returned channel once
// marker has been seen in the stream. Draining continues afterwards so the
// relay never finds c's send buffer full.
func watchFor(c net.Conn, marker string) <-chan struct{} {
	found := make(chan struct{})
	go func() {
		want := []byte(marker)
		buf := make([]byte, 32<<10)
		var tail []byte
		seen := false
		for {
			n, err := c.Read(buf)
			if n > 0 && !seen {
				window := append(tail, buf[:n]...)
				if bytes.Contains(window, want) {
					seen = true
					close(found)
				} else {
					keep := min(len(window), len(want)-1)
					tail = append([]byte(nil), window[len(window)-keep:]...)
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return found
}

func TestRelayOverTCP(t *testing.T) {
	for _, kind := range []reactor.Kind{reactor.KindPoll, reactor.KindEpoll} {
		t.Run(string(kind), func(t *testing.T) {
			t.Run("self echo", func(t *testing.T) {
				f := startRelay(t, kind, 1)
				a := f.dial(t)
				f.waitActive(t, 1)

				_, err := a.Write([]byte("ping"))
				require.NoError(t, err)
				expect(t, a, "ping")
			})

			t.Run("capacity two", func(t *testing.T) {
				f := startRelay(t, kind, 2)
				a := f.dial(t)
				f.waitActive(t, 1)
				b := f.dial(t)
				f.waitActive(t, 2)
				c := f.dial(t)

				_, err := a.Write([]byte("hi"))
				require.NoError(t, err)
				expect(t, a, "hi")
				expect(t, b, "hi")
				expectSilence(t, c)
				assert.EqualValues(t, 2, f.srv.Snapshot().Admitted)

				require.NoError(t, b.Close())
				require.Eventually(t, func() bool {
					return f.srv.Snapshot().Admitted == 3
				}, 2*time.Second, 5*time.Millisecond)
				f.waitActive(t, 2)

				_, err = c.Write([]byte("yo"))
				require.NoError(t, err)
				expect(t, a, "yo")
				expect(t, c, "yo")
			})

			t.Run("stalled reader is dropped", func(t *testing.T) {
				const marker = "HELLO-FROM-C"
				f := startRelay(t, kind, 3)
				a := f.dial(t)
				f.waitActive(t, 1)
				_ = f.dial(t) // never reads
				f.waitActive(t, 2)
				c := f.dial(t)
				f.waitActive(t, 3)

				atA := watchFor(a, marker)
				atC := watchFor(c, marker)

				chunk := bytes.Repeat([]byte{'a'}, 64<<10)
				for i := 0; i < 256 && f.srv.Snapshot().ActiveClients == 3; i++ {
					require.NoError(t, a.SetWriteDeadline(time.Now().Add(5*time.Second)))
					_, err := a.Write(chunk)
					require.NoError(t, err)
				}
				require.Eventually(t, func() bool {
					return f.srv.Snapshot().ActiveClients == 2
				}, 10*time.Second, 10*time.Millisecond, "stalled reader was not removed")
				assert.EqualValues(t, 1, f.srv.Snapshot().WriteFailures)

				_, err := c.Write([]byte(marker))
				require.NoError(t, err)
				for name, ch := range map[string]<-chan struct{}{"a": atA, "c": atC} {
					select {
					case <-ch:
					case <-time.After(10 * time.Second):
						t.Fatalf("%s never received the message from c", name)
					}
				}
			})
		})
	}
}
