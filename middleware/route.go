package middleware

import (
	midsec "HealthSeva/middleware/security"

	"github.com/gin-gonic/gin"
)

type RouteOpt struct {
	IsAuth bool
}

// Router mounts handlers behind the auth middleware. Routes without IsAuth
// still resolve the session when a token is sent.
type Router struct {
	R    gin.IRoutes
	Auth *midsec.Options
}

func (rt Router) chain(h gin.HandlerFunc, opt RouteOpt) []gin.HandlerFunc {
	return []gin.HandlerFunc{midsec.Middleware(rt.Auth, opt.IsAuth), h}
}

func (rt Router) POST(path string, h gin.HandlerFunc, opt RouteOpt) {
	rt.R.POST(path, rt.chain(h, opt)...)
}

func (rt Router) GET(path string, h gin.HandlerFunc, opt RouteOpt) {
	rt.R.GET(path, rt.chain(h, opt)...)
}

func (rt Router) PATCH(path string, h gin.HandlerFunc, opt RouteOpt) {
	rt.R.PATCH(path, rt.chain(h, opt)...)
}

func (rt Router) DELETE(path string, h gin.HandlerFunc, opt RouteOpt) {
	rt.R.DELETE(path, rt.chain(h, opt)...)
}
