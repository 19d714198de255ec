package security

import (
	"net/http"
	"strings"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/errs"

	"github.com/gin-gonic/gin"
)

// Context keys; downstream handlers read identity through these.
const (
	CtxUserIDKey   = "ctxUserId"
	CtxUserRoleKey = "ctxUserRole"
)

// Options controls which headers carry the gateway-verified identity.
type Options struct {
	HeaderUserID string // default "X-User-Id"
	HeaderRole   string // default "X-User-Role"
}

func DefaultOptions() *Options {
	return &Options{
		HeaderUserID: "X-User-Id",
		HeaderRole:   "X-User-Role",
	}
}

// Middleware attaches the pre-validated identity from the upstream gateway
// to the request context. No credential verification happens here; a
// missing identity is rejected as Unauthorized.
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(opts.HeaderUserID))
		role := strings.TrimSpace(c.GetHeader(opts.HeaderRole))

		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrUnauthorized)
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Set(CtxUserRoleKey, role)
		c.Next()
	}
}

// UserID reads the authenticated user id from the request context.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// Role reads the authenticated role from the request context.
func Role(c *gin.Context) string {
	return c.GetString(CtxUserRoleKey)
}
