package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/logger"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/service/storage"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/errs"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait    = 5 * time.Second
	pingEvery    = 30 * time.Second
	presenceTTL  = 2 * time.Minute
	maxFrameSize = 64 * 1024
)

// Store is the persistence surface the gateway relays through.
type Store interface {
	Append(ctx context.Context, senderID, conversationID, content string) (*model.Message, error)
	IsMember(ctx context.Context, conversationID, userID string) (bool, error)
}

type frameHandler func(ctx context.Context, w *WsConn, f *Frame) error

// Server is the stateless realtime relay over the conversation and
// message stores.
type Server struct {
	gwID     string
	conns    *ConnManager
	store    Store
	handlers map[string]frameHandler
}

func NewServer(gwID string, conns *ConnManager, store Store) *Server {
	s := &Server{
		gwID:  gwID,
		conns: conns,
		store: store,
	}
	s.handlers = map[string]frameHandler{
		FrameJoin:  s.handleJoin,
		FrameLeave: s.handleLeave,
		FrameSend:  s.handleSend,
	}
	return s
}

func (s *Server) ConnMgr() *ConnManager {
	return s.conns
}

// HandleWS upgrades the connection and runs the read loop. The identity is
// pre-validated by the upstream gateway and arrives as ?user=<id>; no
// credential check happens here.
func (s *Server) HandleWS(c *gin.Context) {
	userID := c.Query("user")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, errs.ErrUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}
	ws.SetReadLimit(maxFrameSize)

	connID := uuid.NewString()
	w := s.conns.Add(connID, userID, ws)
	logger.Infof("[ws] connected user=%s conn=%s remote=%v", userID, connID, w.Remote)

	// a listen-only client keeps its TTL alive by answering pings
	ws.SetPongHandler(func(string) error {
		s.conns.Touch(connID)
		return nil
	})

	ctx := c.Request.Context()
	if err := storage.PresenceOnline(ctx, userID, s.gwID, presenceTTL); err != nil {
		logger.Warnf("[ws] presence online failed user=%s: %v", userID, err)
	}

	go s.writePump(w)

	defer func() {
		s.conns.Remove(connID)
		if err := storage.PresenceOffline(context.Background(), userID); err != nil {
			logger.Warnf("[ws] presence offline failed user=%s: %v", userID, err)
		}
		logger.Infof("[ws] disconnected user=%s conn=%s", userID, connID)
	}()

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s", connID)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s err=%v", connID, rerr)
			} else {
				logger.Infof("[ws] read err conn=%s err=%v", connID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		s.conns.Touch(connID)
		if err := storage.PresenceOnline(ctx, userID, s.gwID, presenceTTL); err != nil {
			logger.Warnf("[ws] presence renew failed user=%s: %v", userID, err)
		}

		f, perr := ParseFrameJSON(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[ws] bad frame conn=%s err=%v sample=%q", connID, perr, sample)
			continue
		}

		h, ok := s.handlers[f.Type]
		if !ok {
			logger.Infof("[ws] no handler for frame type=%s conn=%s", f.Type, connID)
			continue
		}
		if err := h(ctx, w, f); err != nil {
			s.conns.SendTo(connID, BuildError(err))
		}
	}
}

// handleJoin checks conversation membership before subscribing the
// connection to the room.
func (s *Server) handleJoin(ctx context.Context, w *WsConn, f *Frame) error {
	if f.ConversationID == "" {
		return errs.ErrArgs.WrapMsg("join missing conversationId")
	}
	ok, err := s.store.IsMember(ctx, f.ConversationID, w.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrNotConversationMember.WrapMsg("join refused",
			"userID", w.UserID, "conversationID", f.ConversationID)
	}
	s.conns.JoinRoom(w.ConnID, f.ConversationID)
	return nil
}

func (s *Server) handleLeave(_ context.Context, w *WsConn, f *Frame) error {
	if f.ConversationID == "" {
		return errs.ErrArgs.WrapMsg("leave missing conversationId")
	}
	s.conns.LeaveRoom(w.ConnID, f.ConversationID)
	return nil
}

// handleSend appends through the message store and fans the saved record
// out to the conversation's room. The sender's own connection receives the
// broadcast too, so the client UI updates from the fanout rather than an
// optimistic local write.
func (s *Server) handleSend(ctx context.Context, w *WsConn, f *Frame) error {
	if f.ConversationID == "" {
		return errs.ErrArgs.WrapMsg("send missing conversationId")
	}
	msg, err := s.store.Append(ctx, w.UserID, f.ConversationID, f.Content)
	if err != nil {
		return err
	}
	data := BuildNewMessage(msg)
	s.conns.BroadcastRoom(f.ConversationID, data)
	if !s.conns.InRoom(w.ConnID, f.ConversationID) {
		// echo-back even when the sender has not joined the room
		s.conns.SendTo(w.ConnID, data)
	}
	return nil
}

// writePump drains the connection's send queue; it exits when Remove
// signals done.
func (s *Server) writePump(w *WsConn) {
	ping := time.NewTicker(pingEvery)
	defer ping.Stop()
	for {
		select {
		case <-w.Done():
			return
		case data := <-w.SendChan:
			_ = w.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Infof("[ws] write err conn=%s err=%v", w.ConnID, err)
				s.conns.Remove(w.ConnID)
				return
			}
		case <-ping.C:
			_ = w.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.conns.Remove(w.ConnID)
				return
			}
		}
	}
}
