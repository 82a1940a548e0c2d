package relay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/fake"
	"github.com/momentics/hioload-relay/internal/registry"
)

func setup(t *testing.T, capacity, clients int) (*registry.Registry, *Relay, []*fake.Conn) {
	t.Helper()
	reg, err := registry.New(capacity)
	require.NoError(t, err)
	conns := make([]*fake.Conn, clients)
	for i := range conns {
		conns[i] = fake.NewConn(uintptr(10 + i))
		_, err := reg.Admit(conns[i])
		require.NoError(t, err)
	}
	return reg, New(reg, 0), conns
}

func TestPublishMarksEveryActiveSlot(t *testing.T) {
	reg, r, _ := setup(t, 4, 3)

	msg := r.Publish([]byte("hi"))
	assert.Equal(t, "hi", string(msg.Bytes()))
	assert.Equal(t, 2, msg.Len())
	assert.Equal(t, 3, reg.PendingWrites())

	_, pending := r.Pending()
	assert.True(t, pending)
}

func TestPublishCopiesPayload(t *testing.T) {
	_, r, conns := setup(t, 2, 2)
	buf := []byte("abc")
	r.Publish(buf)
	copy(buf, "xyz")

	r.Flush()
	for _, c := range conns {
		assert.Equal(t, [][]byte{[]byte("abc")}, c.Received())
	}
}

func TestPublishEmptyIsIgnored(t *testing.T) {
	reg, r, _ := setup(t, 2, 2)
	r.Publish(nil)
	assert.Zero(t, reg.PendingWrites())
}

func TestFlushDeliversToAllIncludingSender(t *testing.T) {
	reg, r, conns := setup(t, 3, 3)
	r.Publish([]byte("ping"))

	res := r.Flush()
	assert.Equal(t, 3, res.Delivered)
	assert.EqualValues(t, 12, res.Bytes)
	assert.Empty(t, res.Failed)
	assert.Zero(t, reg.PendingWrites())
	for _, c := range conns {
		assert.Equal(t, [][]byte{[]byte("ping")}, c.Received())
	}

	// nothing left to do
	assert.Zero(t, r.Flush().Delivered)
}

func TestFlushIsolatesWriteFailure(t *testing.T) {
	reg, r, conns := setup(t, 3, 3)
	boom := errors.New("broken pipe")
	conns[1].FailWrites(boom)

	r.Publish([]byte("x"))
	res := r.Flush()

	assert.Equal(t, 2, res.Delivered)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 1, res.Failed[0].Slot.Index)
	assert.EqualValues(t, 11, res.Failed[0].FD)
	assert.ErrorIs(t, res.Failed[0].Err, boom)
	assert.ErrorIs(t, res.Failed[0].Err, api.ErrPeerWrite)

	assert.True(t, conns[1].Closed())
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, [][]byte{[]byte("x")}, conns[0].Received())
	assert.Equal(t, [][]byte{[]byte("x")}, conns[2].Received())
}

func TestFlushShortWriteRemovesPeer(t *testing.T) {
	reg, r, conns := setup(t, 2, 2)
	conns[0].ShortWrites(2)

	r.Publish([]byte("hello"))
	res := r.Flush()

	require.Len(t, res.Failed, 1)
	assert.ErrorIs(t, res.Failed[0].Err, api.ErrShortWrite)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, [][]byte{[]byte("hello")}, conns[1].Received())
}

func TestFlushRemovesPeerWithFullSendBuffer(t *testing.T) {
	reg, r, conns := setup(t, 2, 2)
	conns[0].BlockWrites(true)

	r.Publish([]byte("later"))
	res := r.Flush()
	assert.Equal(t, 1, res.Delivered)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 0, res.Failed[0].Slot.Index)
	assert.ErrorIs(t, res.Failed[0].Err, api.ErrWouldBlock)
	assert.ErrorIs(t, res.Failed[0].Err, api.ErrPeerWrite)

	assert.True(t, conns[0].Closed())
	assert.Empty(t, conns[0].Received())
	assert.Equal(t, [][]byte{[]byte("later")}, conns[1].Received())
	assert.Equal(t, 1, reg.Len())

	_, pending := r.Pending()
	assert.False(t, pending)
}
