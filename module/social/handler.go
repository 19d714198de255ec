package social

import (
	"net/http"

	mid "github.com/chiendz11/Badminton-manager-microservices-sub002/middleware"
	midsec "github.com/chiendz11/Badminton-manager-microservices-sub002/middleware/security"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/service"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/service/chat"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/errs"

	"github.com/gin-gonic/gin"
)

// Handler exposes the social HTTP surface. Identity on every route comes
// pre-validated from the upstream gateway.
type Handler struct {
	search *service.SearchClient
	conns  *chat.ConnManager
}

func NewHandler(search *service.SearchClient, conns *chat.ConnManager) *Handler {
	return &Handler{search: search, conns: conns}
}

// RegisterRoutes wires the REST surface onto the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	auth := mid.RouteOpt{IsAuth: true}

	mid.GET(r, "/api/friends/search", h.SearchUsers, auth)
	mid.POST(r, "/api/friends/requests", h.SendRequest, auth)
	mid.POST(r, "/api/friends/requests/accept", h.AcceptRequest, auth)
	mid.POST(r, "/api/friends/requests/decline", h.DeclineRequest, auth)
	mid.GET(r, "/api/friends/requests/incoming", h.ListPendingIncoming, auth)
	mid.GET(r, "/api/friends", h.ListFriends, auth)
	mid.DELETE(r, "/api/friends/:friendId", h.RemoveFriendship, auth)

	mid.GET(r, "/api/conversations", h.ListConversations, auth)
	mid.GET(r, "/api/conversations/with/:userId", h.GetConversationWithHistory, auth)
	mid.POST(r, "/api/messages", h.SendMessage, auth)
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "ok", "data": data})
}

func fail(c *gin.Context, err error) {
	codeErr := errs.Unwrap(err)
	if codeErr == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": -1, "msg": err.Error()})
		return
	}
	c.JSON(httpStatusOf(codeErr.Code), codeErr)
}

func httpStatusOf(code int) int {
	switch code {
	case errs.ArgsErrCode:
		return http.StatusBadRequest
	case errs.UnauthorizedErrCode:
		return http.StatusUnauthorized
	case errs.RecordNotFoundCode, errs.RelationshipNotFoundCode, errs.ConversationNotFoundCode:
		return http.StatusNotFound
	case errs.NotConversationMemberCode:
		return http.StatusForbidden
	case errs.DuplicatedErrCode:
		return http.StatusConflict
	case errs.UpstreamErrCode:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// SearchUsers proxies the identity search and annotates each hit with the
// viewer's relationship status.
func (h *Handler) SearchUsers(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		fail(c, errs.ErrArgs.WrapMsg("keyword required"))
		return
	}
	cands, err := h.search.SearchWithRelationship(c.Request.Context(), midsec.UserID(c), keyword)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, cands)
}

type friendRequestBody struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *Handler) SendRequest(c *gin.Context) {
	var body friendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	f, err := service.SendRequest(c.Request.Context(), midsec.UserID(c), body.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, f)
}

// AcceptRequest accepts a pending request addressed to the caller and
// returns the accepted relationship together with the (possibly reused)
// private conversation.
func (h *Handler) AcceptRequest(c *gin.Context) {
	var body friendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	f, conv, err := service.AcceptRequest(c.Request.Context(), midsec.UserID(c), body.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"friendship": f, "conversation": conv})
}

func (h *Handler) DeclineRequest(c *gin.Context) {
	var body friendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	if err := service.DeclineRequest(c.Request.Context(), midsec.UserID(c), body.UserID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) RemoveFriendship(c *gin.Context) {
	friendID := c.Param("friendId")
	if err := service.RemoveFriendship(c.Request.Context(), midsec.UserID(c), friendID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) ListFriends(c *gin.Context) {
	profiles, err := service.ListFriends(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, profiles)
}

func (h *Handler) ListPendingIncoming(c *gin.Context) {
	profiles, err := service.ListPendingIncoming(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, profiles)
}

func (h *Handler) ListConversations(c *gin.Context) {
	views, err := service.ListConversationsForUser(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, views)
}

// GetConversationWithHistory returns the private conversation with the
// other user, its members and full history; an empty view when no
// conversation exists yet.
func (h *Handler) GetConversationWithHistory(c *gin.Context) {
	view, err := service.GetConversationWithHistory(c.Request.Context(), midsec.UserID(c), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

type sendMessageBody struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Content        string `json:"content" binding:"required"`
}

// SendMessage is the HTTP fallback for appending a message; delivery to
// connected clients still happens through the realtime broadcast.
func (h *Handler) SendMessage(c *gin.Context) {
	var body sendMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	msg, err := service.AppendMessage(c.Request.Context(), midsec.UserID(c), body.ConversationID, body.Content)
	if err != nil {
		fail(c, err)
		return
	}
	if h.conns != nil {
		h.conns.BroadcastRoom(body.ConversationID, chat.BuildNewMessage(msg))
	}
	ok(c, msg)
}
