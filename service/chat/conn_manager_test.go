package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(clock func() time.Time) *ConnManager {
	return NewConnManagerWithConf(ManagerConf{
		IdleTTL:    time.Minute,
		SweepEvery: time.Hour, // sweep driven manually in tests
		SendBuffer: 4,
		Clock:      clock,
	}, "gw-test")
}

func TestAddRemoveBookkeeping(t *testing.T) {
	m := newTestManager(time.Now)
	defer m.Close()

	m.Add("c1", "u1", nil)
	m.Add("c2", "u1", nil)
	m.Add("c3", "u2", nil)

	assert.Len(t, m.UserConns("u1"), 2)
	assert.Len(t, m.UserConns("u2"), 1)

	m.Remove("c1")
	assert.Len(t, m.UserConns("u1"), 1)

	m.Remove("c2")
	assert.Empty(t, m.UserConns("u1"))

	// removing twice is harmless
	m.Remove("c2")
}

func TestJoinLeaveRoom(t *testing.T) {
	m := newTestManager(time.Now)
	defer m.Close()

	m.Add("c1", "u1", nil)
	m.Add("c2", "u2", nil)

	require.True(t, m.JoinRoom("c1", "conv1"))
	require.True(t, m.JoinRoom("c2", "conv1"))
	assert.Equal(t, 2, m.RoomSize("conv1"))
	assert.True(t, m.InRoom("c1", "conv1"))

	m.LeaveRoom("c1", "conv1")
	assert.False(t, m.InRoom("c1", "conv1"))
	assert.Equal(t, 1, m.RoomSize("conv1"))

	// unknown connection cannot join
	assert.False(t, m.JoinRoom("nope", "conv1"))
}

func TestRemoveLeavesRooms(t *testing.T) {
	m := newTestManager(time.Now)
	defer m.Close()

	m.Add("c1", "u1", nil)
	m.JoinRoom("c1", "conv1")
	require.Equal(t, 1, m.RoomSize("conv1"))

	m.Remove("c1")
	assert.Equal(t, 0, m.RoomSize("conv1"))
}

func TestBroadcastRoomIncludesSender(t *testing.T) {
	m := newTestManager(time.Now)
	defer m.Close()

	a := m.Add("c1", "u1", nil)
	b := m.Add("c2", "u2", nil)
	m.Add("c3", "u3", nil) // not in the room
	m.JoinRoom("c1", "conv1")
	m.JoinRoom("c2", "conv1")

	n := m.BroadcastRoom("conv1", []byte("hi"))
	assert.Equal(t, 2, n)

	assert.Equal(t, []byte("hi"), <-a.SendChan)
	assert.Equal(t, []byte("hi"), <-b.SendChan)
}

func TestBroadcastDropsOnFullQueue(t *testing.T) {
	m := newTestManager(time.Now)
	defer m.Close()

	w := m.Add("c1", "u1", nil)
	m.JoinRoom("c1", "conv1")

	for i := 0; i < cap(w.SendChan); i++ {
		require.Equal(t, 1, m.BroadcastRoom("conv1", []byte("x")))
	}
	// queue full now; the frame is dropped, not blocked on
	assert.Equal(t, 0, m.BroadcastRoom("conv1", []byte("x")))
}

func TestSweeperExpiresIdleConns(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	m := newTestManager(clock)
	defer m.Close()

	w := m.Add("c1", "u1", nil)
	m.JoinRoom("c1", "conv1")

	// renew, then advance past the TTL
	m.Touch("c1")
	now = now.Add(2 * time.Minute)

	m.mu.Lock()
	for connID, c := range m.byConn {
		if clock().After(c.ExpireAt) {
			m.removeLocked(connID)
		}
	}
	m.mu.Unlock()

	_, ok := m.Get("c1")
	assert.False(t, ok)
	assert.Equal(t, 0, m.RoomSize("conv1"))

	select {
	case <-w.Done():
	default:
		t.Fatalf("done must be closed after removal")
	}
}

func TestSendToUnknownConn(t *testing.T) {
	m := newTestManager(time.Now)
	defer m.Close()
	assert.False(t, m.SendTo("nope", []byte("x")))
}
