package middleware

import (
	midsec "github.com/chiendz11/Badminton-manager-microservices-sub002/middleware/security"

	"github.com/gin-gonic/gin"
)

// RouteOpt configures per-route behavior.
type RouteOpt struct {
	IsAuth bool
}

func chain(handler gin.HandlerFunc, opt RouteOpt) []gin.HandlerFunc {
	if !opt.IsAuth {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{
		midsec.Middleware(midsec.DefaultOptions()),
		handler,
	}
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.GET(path, chain(handler, opt)...)
}

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.POST(path, chain(handler, opt)...)
}

func DELETE(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.DELETE(path, chain(handler, opt)...)
}
