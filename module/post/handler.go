package post

import (
	"HealthSeva/global"
	"HealthSeva/middleware"
	midsec "HealthSeva/middleware/security"
	"HealthSeva/module/post/service"
	"HealthSeva/tools/errs"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Posts
}

func NewHandler(svc *service.Posts) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rt middleware.Router) {
	rt.GET("/posts", h.list, middleware.RouteOpt{})
	rt.POST("/posts", h.create, middleware.RouteOpt{IsAuth: true})
	rt.POST("/posts/:id/like", h.like, middleware.RouteOpt{IsAuth: true})
	rt.PATCH("/posts/:id", h.edit, middleware.RouteOpt{IsAuth: true})
	rt.DELETE("/posts/:id", h.delete, middleware.RouteOpt{IsAuth: true})
}

type postBody struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

func (h *Handler) list(c *gin.Context) {
	global.Reply(c, h.svc.List(c.Request.Context()), nil)
}

func (h *Handler) create(c *gin.Context) {
	var in postBody
	if err := c.ShouldBindJSON(&in); err != nil {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	p, err := h.svc.Create(c.Request.Context(), midsec.StateFrom(c), in.Content, in.Type)
	global.Reply(c, p, err)
}

func (h *Handler) like(c *gin.Context) {
	n, err := h.svc.Like(c.Request.Context(), midsec.StateFrom(c), c.Param("id"))
	global.Reply(c, gin.H{"likes": n}, err)
}

func (h *Handler) edit(c *gin.Context) {
	var in postBody
	if err := c.ShouldBindJSON(&in); err != nil {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	err := h.svc.Edit(c.Request.Context(), midsec.StateFrom(c), c.Param("id"), in.Content)
	global.Reply(c, nil, err)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), midsec.StateFrom(c), c.Param("id"))
	global.Reply(c, nil, err)
}
