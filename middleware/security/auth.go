package security

import (
	"context"
	"strings"

	"HealthSeva/global"
	"HealthSeva/module/user/session"
	"HealthSeva/tools/errs"

	"github.com/gin-gonic/gin"
)

// context keys set by Middleware
const (
	CtxTokenKey   = "authorization"
	CtxSessionKey = "session"
)

type Verifier interface {
	Verify(ctx context.Context, token string) (*session.Identity, error)
}

type Options struct {
	HeaderToken               string // raw token header, "X-Token" by default
	QueryToken                string // browsers cannot set headers on websocket upgrades
	EnableAuthorizationBearer bool

	Verifier Verifier
	Profiles session.ProfileLookup
	Policy   session.AdminPolicy
}

func DefaultOptions(v Verifier, profiles session.ProfileLookup, policy session.AdminPolicy) *Options {
	return &Options{
		HeaderToken:               "X-Token",
		QueryToken:                "token",
		EnableAuthorizationBearer: true,
		Verifier:                  v,
		Profiles:                  profiles,
		Policy:                    policy,
	}
}

// Token pulls the access token out of the request, "" when there is none.
func (o *Options) Token(c *gin.Context) string {
	var token string
	if o.EnableAuthorizationBearer {
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
			token = strings.TrimSpace(authz[7:])
		}
	}
	if token == "" && o.HeaderToken != "" {
		token = strings.TrimSpace(c.GetHeader(o.HeaderToken))
	}
	if token == "" && o.QueryToken != "" {
		token = strings.TrimSpace(c.Query(o.QueryToken))
	}
	return token
}

// Middleware resolves the caller's session for this request and stores its
// state under CtxSessionKey. With required set, requests without a valid
// token are rejected; otherwise they continue signed out.
func Middleware(opts *Options, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := opts.Token(c)
		if token == "" {
			if required {
				global.Reply(c, nil, errs.ErrNotLoggedIn.Wrap())
				return
			}
			c.Next()
			return
		}

		ident, err := opts.Verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if required {
				global.Reply(c, nil, err)
				return
			}
			c.Next()
			return
		}

		s := session.Resolved(c.Request.Context(), opts.Profiles, opts.Policy, ident)
		c.Set(CtxTokenKey, token)
		c.Set(CtxSessionKey, s.State())
		c.Next()
	}
}

// StateFrom returns the session state Middleware resolved, signed out when
// there is none.
func StateFrom(c *gin.Context) session.State {
	if v, ok := c.Get(CtxSessionKey); ok {
		if st, ok := v.(session.State); ok {
			return st
		}
	}
	return session.State{Role: "USER"}
}

func TokenFrom(c *gin.Context) string {
	return c.GetString(CtxTokenKey)
}
