package chat

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ManagerConf tunes connection bookkeeping.
type ManagerConf struct {
	IdleTTL    time.Duration    // connection TTL, renewed by heartbeat
	SweepEvery time.Duration    // sweep period
	SendBuffer int              // per-connection send queue length
	Clock      func() time.Time // injectable clock for tests; nil => time.Now
}

func (c *ManagerConf) norm() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = 10 * time.Second
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 5 * time.Minute
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
}

// WsConn is one tracked client connection with its private send queue.
type WsConn struct {
	ConnID string
	UserID string

	Conn   *websocket.Conn
	Remote net.Addr

	SendChan chan []byte
	// done signals the writer to exit; the send queue itself is never
	// closed so concurrent broadcasts cannot panic.
	done chan struct{}

	CreatedAt time.Time
	Heartbeat time.Time
	ExpireAt  time.Time

	rooms map[string]struct{}
}

// Done is closed when the connection is removed.
func (w *WsConn) Done() <-chan struct{} { return w.done }

// ConnManager tracks connections and conversation rooms.
type ConnManager struct {
	mu     sync.RWMutex
	byConn map[string]*WsConn            // primary index: connID -> conn
	byUser map[string]map[string]*WsConn // userID -> (connID -> conn)
	rooms  map[string]map[string]*WsConn // conversationID -> (connID -> conn)

	conf     ManagerConf
	stopOnce sync.Once
	stopCh   chan struct{}
	gwID     string
}

func NewConnManager(gwID string) *ConnManager {
	return NewConnManagerWithConf(ManagerConf{}, gwID)
}

func NewConnManagerWithConf(conf ManagerConf, gwID string) *ConnManager {
	conf.norm()
	m := &ConnManager{
		byConn: make(map[string]*WsConn),
		byUser: make(map[string]map[string]*WsConn),
		rooms:  make(map[string]map[string]*WsConn),
		conf:   conf,
		gwID:   gwID,
		stopCh: make(chan struct{}),
	}
	go m.sweeper()
	return m
}

func (m *ConnManager) GwID() string {
	return m.gwID
}

// Add registers a connection for a user. Multiple connections per user are
// allowed (multi-device).
func (m *ConnManager) Add(connID, userID string, conn *websocket.Conn) *WsConn {
	now := m.conf.Clock()
	w := &WsConn{
		ConnID:    connID,
		UserID:    userID,
		Conn:      conn,
		SendChan:  make(chan []byte, m.conf.SendBuffer),
		done:      make(chan struct{}),
		CreatedAt: now,
		Heartbeat: now,
		ExpireAt:  now.Add(m.conf.IdleTTL),
		rooms:     make(map[string]struct{}),
	}
	if conn != nil {
		w.Remote = conn.RemoteAddr()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byConn[connID] = w
	mm := m.byUser[userID]
	if mm == nil {
		mm = make(map[string]*WsConn)
		m.byUser[userID] = mm
	}
	mm[connID] = w
	return w
}

// Remove unregisters the connection and leaves all of its rooms.
func (m *ConnManager) Remove(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(connID)
}

func (m *ConnManager) removeLocked(connID string) {
	w, ok := m.byConn[connID]
	if !ok {
		return
	}
	delete(m.byConn, connID)
	if mm := m.byUser[w.UserID]; mm != nil {
		delete(mm, connID)
		if len(mm) == 0 {
			delete(m.byUser, w.UserID)
		}
	}
	for roomID := range w.rooms {
		if rm := m.rooms[roomID]; rm != nil {
			delete(rm, connID)
			if len(rm) == 0 {
				delete(m.rooms, roomID)
			}
		}
	}
	close(w.done)
	closeQuiet(w.Conn)
}

// Get returns a tracked connection.
func (m *ConnManager) Get(connID string) (*WsConn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.byConn[connID]
	return w, ok
}

// UserConns returns every live connection of a user.
func (m *ConnManager) UserConns(userID string) []*WsConn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mm := m.byUser[userID]
	out := make([]*WsConn, 0, len(mm))
	for _, w := range mm {
		out = append(out, w)
	}
	return out
}

// Touch renews the heartbeat and TTL.
func (m *ConnManager) Touch(connID string) {
	now := m.conf.Clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.byConn[connID]; ok {
		w.Heartbeat = now
		w.ExpireAt = now.Add(m.conf.IdleTTL)
	}
}

// JoinRoom subscribes the connection to a conversation's broadcast group.
func (m *ConnManager) JoinRoom(connID, roomID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.byConn[connID]
	if !ok {
		return false
	}
	rm := m.rooms[roomID]
	if rm == nil {
		rm = make(map[string]*WsConn)
		m.rooms[roomID] = rm
	}
	rm[connID] = w
	w.rooms[roomID] = struct{}{}
	return true
}

// LeaveRoom unsubscribes the connection from the broadcast group.
func (m *ConnManager) LeaveRoom(connID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.byConn[connID]
	if !ok {
		return
	}
	delete(w.rooms, roomID)
	if rm := m.rooms[roomID]; rm != nil {
		delete(rm, connID)
		if len(rm) == 0 {
			delete(m.rooms, roomID)
		}
	}
}

// InRoom reports whether the connection is joined to the room.
func (m *ConnManager) InRoom(connID, roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rm := m.rooms[roomID]
	if rm == nil {
		return false
	}
	_, ok := rm[connID]
	return ok
}

// RoomSize returns the number of connections joined to the room.
func (m *ConnManager) RoomSize(roomID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[roomID])
}

// BroadcastRoom enqueues data on every connection joined to the room,
// the origin connection included. A full send queue drops the frame for
// that connection rather than blocking the caller.
func (m *ConnManager) BroadcastRoom(roomID string, data []byte) int {
	m.mu.RLock()
	conns := make([]*WsConn, 0, len(m.rooms[roomID]))
	for _, w := range m.rooms[roomID] {
		conns = append(conns, w)
	}
	m.mu.RUnlock()

	n := 0
	for _, w := range conns {
		select {
		case w.SendChan <- data:
			n++
		default:
		}
	}
	return n
}

// SendTo enqueues data on a single connection.
func (m *ConnManager) SendTo(connID string, data []byte) bool {
	m.mu.RLock()
	w, ok := m.byConn[connID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case w.SendChan <- data:
		return true
	default:
		return false
	}
}

func (m *ConnManager) sweeper() {
	t := time.NewTicker(m.conf.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			now := m.conf.Clock()
			m.mu.Lock()
			for connID, w := range m.byConn {
				if now.After(w.ExpireAt) {
					m.removeLocked(connID)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *ConnManager) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.mu.Lock()
	defer m.mu.Unlock()
	for connID := range m.byConn {
		m.removeLocked(connID)
	}
}

func closeQuiet(c *websocket.Conn) {
	if c != nil {
		_ = c.Close()
	}
}
