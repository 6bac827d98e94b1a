package user

import (
	"HealthSeva/global"
	"HealthSeva/middleware"
	midsec "HealthSeva/middleware/security"
	"HealthSeva/module/user/model"
	"HealthSeva/module/user/service"
	"HealthSeva/tools/errs"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	identity *service.Identity
	profiles *service.Profiles
}

func NewHandler(identity *service.Identity, profiles *service.Profiles) *Handler {
	return &Handler{identity: identity, profiles: profiles}
}

func (h *Handler) Register(rt middleware.Router) {
	rt.POST("/auth/signin", h.signIn, middleware.RouteOpt{})
	rt.POST("/auth/signout", h.signOut, middleware.RouteOpt{IsAuth: true})
	rt.GET("/me", h.me, middleware.RouteOpt{IsAuth: true})
	rt.GET("/profile", h.profile, middleware.RouteOpt{IsAuth: true})
	rt.PATCH("/profile", h.update, middleware.RouteOpt{IsAuth: true})
	rt.GET("/profile/activity", h.activity, middleware.RouteOpt{IsAuth: true})
}

type signInBody struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	BloodType string `json:"bloodType"`
}

func (h *Handler) signIn(c *gin.Context) {
	var in signInBody
	if err := c.ShouldBindJSON(&in); err != nil {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	res, err := h.identity.SignIn(c.Request.Context(), service.SignInParams{
		Email:     in.Email,
		Name:      in.Name,
		Role:      model.ParseRole(in.Role),
		BloodType: in.BloodType,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	global.Reply(c, res, err)
}

func (h *Handler) signOut(c *gin.Context) {
	err := h.identity.SignOut(c.Request.Context(), midsec.TokenFrom(c))
	global.Reply(c, nil, err)
}

// me is the resolved session of the caller.
func (h *Handler) me(c *gin.Context) {
	global.Reply(c, midsec.StateFrom(c), nil)
}

func (h *Handler) profile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), midsec.StateFrom(c))
	global.Reply(c, p, err)
}

func (h *Handler) update(c *gin.Context) {
	var u model.ProfileUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		global.Reply(c, nil, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	p, err := h.profiles.Update(c.Request.Context(), midsec.StateFrom(c), u)
	global.Reply(c, p, err)
}

func (h *Handler) activity(c *gin.Context) {
	a, err := h.profiles.Activity(c.Request.Context(), midsec.StateFrom(c))
	global.Reply(c, a, err)
}
