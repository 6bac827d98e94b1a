package analytics

import (
	"HealthSeva/global"
	"HealthSeva/middleware"
	midsec "HealthSeva/middleware/security"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rt middleware.Router) {
	rt.GET("/admin/analytics", h.totals, middleware.RouteOpt{IsAuth: true})
	rt.GET("/admin/instances", h.instances, middleware.RouteOpt{IsAuth: true})
}

func (h *Handler) totals(c *gin.Context) {
	t, err := h.svc.Totals(c.Request.Context(), midsec.StateFrom(c))
	global.Reply(c, t, err)
}

func (h *Handler) instances(c *gin.Context) {
	list, err := h.svc.Instances(c.Request.Context(), midsec.StateFrom(c))
	global.Reply(c, list, err)
}
