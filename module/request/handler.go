package request

import (
	"strings"

	"HealthSeva/global"
	"HealthSeva/middleware"
	midsec "HealthSeva/middleware/security"
	"HealthSeva/module/request/model"
	"HealthSeva/module/request/service"
	"HealthSeva/tools/errs"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Requests
	ws  *WS
}

func NewHandler(svc *service.Requests, ws *WS) *Handler {
	return &Handler{svc: svc, ws: ws}
}

// Register mounts the request API on rt and the live feed on r.
func (h *Handler) Register(rt middleware.Router, r gin.IRoutes) {
	rt.GET("/requests", h.list, middleware.RouteOpt{})
	rt.GET("/requests/pending", h.pending, middleware.RouteOpt{IsAuth: true})
	rt.GET("/requests/mine", h.mine, middleware.RouteOpt{IsAuth: true})
	rt.GET("/requests/blood", h.blood, middleware.RouteOpt{})
	rt.GET("/requests/search", h.search, middleware.RouteOpt{})
	rt.GET("/requests/:id", h.get, middleware.RouteOpt{})
	rt.POST("/requests", h.create, middleware.RouteOpt{IsAuth: true})
	rt.POST("/requests/:id/respond", h.respond, middleware.RouteOpt{IsAuth: true})
	rt.PATCH("/requests/:id/status", h.updateStatus, middleware.RouteOpt{IsAuth: true})
	rt.PATCH("/requests/:id", h.edit, middleware.RouteOpt{IsAuth: true})
	rt.DELETE("/requests/:id", h.delete, middleware.RouteOpt{IsAuth: true})
	if h.ws != nil {
		r.GET("/ws/requests", h.ws.Serve)
	}
}

func (h *Handler) list(c *gin.Context) {
	global.Reply(c, h.svc.List(c.Request.Context()), nil)
}

// pending is the provider dashboard over a plain request; dismissals only
// exist on live subscriptions.
func (h *Handler) pending(c *gin.Context) {
	global.Reply(c, model.Pending(h.svc.List(c.Request.Context()), nil), nil)
}

func (h *Handler) mine(c *gin.Context) {
	list, err := h.svc.Mine(c.Request.Context(), midsec.StateFrom(c))
	global.Reply(c, list, err)
}

func (h *Handler) blood(c *gin.Context) {
	f := model.BloodFilter{
		BloodType: c.Query("bloodType"),
		Urgency:   c.Query("urgency"),
		Status:    c.Query("status"),
	}
	global.Reply(c, h.svc.Blood(c.Request.Context(), f), nil)
}

func (h *Handler) search(c *gin.Context) {
	global.Reply(c, h.svc.Search(c.Request.Context(), c.Query("q")), nil)
}

func (h *Handler) get(c *gin.Context) {
	r, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	global.Reply(c, r, err)
}

// create checks that the form named a type and an item and that urgency, when
// sent, is a known level; the remaining fields are stored as sent, empty or not.
func (h *Handler) create(c *gin.Context) {
	var in service.CreateParams
	if err := c.ShouldBindJSON(&in); err != nil {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	in.Type = model.Type(strings.ToUpper(string(in.Type)))
	in.Urgency = model.Urgency(strings.ToUpper(string(in.Urgency)))
	if !in.Type.Valid() || strings.TrimSpace(in.ItemName) == "" {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg("type and itemName are required"))
		return
	}
	if in.Urgency == "" {
		in.Urgency = model.UrgencyMedium
	}
	if !in.Urgency.Valid() {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg("unknown urgency", "urgency", in.Urgency))
		return
	}
	r, err := h.svc.Create(c.Request.Context(), midsec.StateFrom(c), in)
	global.Reply(c, r, err)
}

func (h *Handler) respond(c *gin.Context) {
	var in service.Contact
	if err := c.ShouldBindJSON(&in); err != nil {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	err := h.svc.Respond(c.Request.Context(), midsec.StateFrom(c), c.Param("id"), in)
	global.Reply(c, nil, err)
}

type statusBody struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var in statusBody
	if err := c.ShouldBindJSON(&in); err != nil {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	status, ok := model.ParseStatus(in.Status)
	if !ok {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg("unknown status", "status", in.Status))
		return
	}
	err := h.svc.UpdateStatus(c.Request.Context(), midsec.StateFrom(c), c.Param("id"), status)
	global.Reply(c, nil, err)
}

func (h *Handler) edit(c *gin.Context) {
	var p model.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	if p.Urgency != nil {
		u := model.Urgency(strings.ToUpper(string(*p.Urgency)))
		p.Urgency = &u
	}
	err := h.svc.Edit(c.Request.Context(), midsec.StateFrom(c), c.Param("id"), p)
	global.Reply(c, nil, err)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), midsec.StateFrom(c), c.Param("id"))
	global.Reply(c, nil, err)
}
