package chat

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
)

type stubStore struct {
	member bool
}

func (s stubStore) Append(_ context.Context, senderID, conversationID, content string) (*model.Message, error) {
	return &model.Message{
		ID:             "m-" + content,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}, nil
}

func (s stubStore) IsMember(context.Context, string, string) (bool, error) {
	return s.member, nil
}

func startWSServer(t *testing.T, conf ManagerConf, store Store) (*ConnManager, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := NewConnManagerWithConf(conf, "gw-test")
	srv := NewServer("gw-test", m, store)
	r := gin.New()
	r.GET("/ws", srv.HandleWS)
	ts := httptest.NewServer(r)

	t.Cleanup(func() {
		ts.Close()
		m.Close()
	})
	return m, ts
}

func dialWS(t *testing.T, ts *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHandleWSRejectsMissingIdentity(t *testing.T) {
	_, ts := startWSServer(t, ManagerConf{}, stubStore{member: true})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
}

func TestJoinSendBroadcastRoundTrip(t *testing.T) {
	m, ts := startWSServer(t, ManagerConf{}, stubStore{member: true})

	alice := dialWS(t, ts, "u1")
	bob := dialWS(t, ts, "u2")

	join := []byte(`{"type":"joinConversation","conversationId":"c1"}`)
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, join))
	require.NoError(t, bob.WriteMessage(websocket.TextMessage, join))
	waitFor(t, "both joined", func() bool { return m.RoomSize("c1") == 2 })

	send := []byte(`{"type":"sendMessage","conversationId":"c1","content":"hello"}`)
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, send))

	for _, conn := range []*websocket.Conn{alice, bob} {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var f Frame
		require.NoError(t, json.Unmarshal(data, &f))
		assert.Equal(t, FrameNewMessage, f.Type)
		require.NotNil(t, f.Message)
		assert.Equal(t, "hello", f.Message.Content)
		assert.Equal(t, "u1", f.Message.SenderID)
		assert.Equal(t, "c1", f.Message.ConversationID)
	}
}

func TestJoinRefusedForNonMember(t *testing.T) {
	m, ts := startWSServer(t, ManagerConf{}, stubStore{member: false})

	conn := dialWS(t, ts, "u1")
	join := []byte(`{"type":"joinConversation","conversationId":"c1"}`)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, join))

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, FrameError, f.Type)
	assert.Equal(t, 0, m.RoomSize("c1"))
}

func TestPongRenewsIdleTTL(t *testing.T) {
	var mu sync.Mutex
	now := time.Unix(1000, 0)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	m, ts := startWSServer(t, ManagerConf{
		IdleTTL:    time.Minute,
		SweepEvery: time.Hour,
		Clock:      clock,
	}, stubStore{member: true})

	conn := dialWS(t, ts, "u1")

	var connID string
	waitFor(t, "connection tracked", func() bool {
		conns := m.UserConns("u1")
		if len(conns) != 1 {
			return false
		}
		connID = conns[0].ConnID
		return true
	})

	expireAt := func() time.Time {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.byConn[connID].ExpireAt
	}
	initial := expireAt()

	// half the TTL passes, then the client answers with a pong
	advance(30 * time.Second)
	require.NoError(t, conn.WriteControl(websocket.PongMessage, nil, time.Now().Add(time.Second)))

	waitFor(t, "TTL renewed by pong", func() bool { return expireAt().After(initial) })
}
