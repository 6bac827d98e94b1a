package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Origins answers CORS for the listed origins; "*" allows any. An empty
// list allows any as well, for local runs.
type Origins []string

func (o Origins) Allowed(origin string) bool {
	if origin == "" || len(o) == 0 {
		return true
	}
	for _, a := range o {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// CheckOrigin fits websocket.Upgrader.CheckOrigin.
func (o Origins) CheckOrigin(r *http.Request) bool {
	return o.Allowed(r.Header.Get("Origin"))
}

func Origin(allowed Origins) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allowed.Allowed(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, authorization")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
