package api_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-relay/api"
)

func TestTransportInterfaceCompliance(t *testing.T) {
	var _ api.NetConn = (*mockConn)(nil)
	var _ api.Acceptor = (*mockAcceptor)(nil)
}

// mockConn implements api.NetConn for interface checks.
type mockConn struct{}

func (*mockConn) Read([]byte) (int, error)  { return 0, api.ErrWouldBlock }
func (*mockConn) Write([]byte) (int, error) { return 0, nil }
func (*mockConn) Close() error              { return nil }
func (*mockConn) RawFD() uintptr            { return 0 }

type mockAcceptor struct{}

func (*mockAcceptor) Accept() (api.NetConn, error) { return nil, api.ErrWouldBlock }
func (*mockAcceptor) RawFD() uintptr               { return 0 }
func (*mockAcceptor) Close() error                 { return nil }

func TestHandleSet(t *testing.T) {
	s := api.NewHandleSet(3, 4)
	s.Add(5)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has(4))
	assert.False(t, s.Has(6))
}

func TestErrorClassification(t *testing.T) {
	cause := errors.New("EBADF")
	mux := api.NewError(api.ErrCodeMultiplex, "poll").Wrap(cause).WithContext("fds", 3)
	assert.ErrorIs(t, mux, api.ErrMultiplex)
	assert.ErrorIs(t, mux, cause)
	assert.True(t, api.IsFatal(mux))
	assert.Contains(t, mux.Error(), "poll: EBADF")
	assert.Contains(t, mux.Error(), "fds")

	peer := api.NewError(api.ErrCodePeerWrite, "write").Wrap(cause)
	assert.ErrorIs(t, peer, api.ErrPeerWrite)
	assert.False(t, api.IsFatal(peer))
	assert.False(t, api.IsFatal(api.ErrCapacityExceeded))

	startup := api.NewError(api.ErrCodeStartup, "bind")
	assert.True(t, api.IsFatal(startup))
	assert.Equal(t, "multiplex", api.ErrCodeMultiplex.String())
}
