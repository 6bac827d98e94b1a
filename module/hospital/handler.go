package hospital

import (
	"HealthSeva/global"
	"HealthSeva/middleware"
	midsec "HealthSeva/middleware/security"
	"HealthSeva/module/hospital/service"
	"HealthSeva/tools/errs"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Hospitals
}

func NewHandler(svc *service.Hospitals) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rt middleware.Router) {
	rt.GET("/hospitals", h.list, middleware.RouteOpt{})
	rt.POST("/hospitals", h.create, middleware.RouteOpt{IsAuth: true})
	rt.DELETE("/hospitals/:id", h.delete, middleware.RouteOpt{IsAuth: true})
}

func (h *Handler) list(c *gin.Context) {
	global.Reply(c, h.svc.List(c.Request.Context()), nil)
}

func (h *Handler) create(c *gin.Context) {
	var in service.CreateParams
	if err := c.ShouldBindJSON(&in); err != nil {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	out, err := h.svc.Create(c.Request.Context(), midsec.StateFrom(c), in)
	global.Reply(c, out, err)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), midsec.StateFrom(c), c.Param("id"))
	global.Reply(c, nil, err)
}
