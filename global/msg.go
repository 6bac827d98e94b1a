package global

import (
	"net/http"

	"HealthSeva/logger"
	"HealthSeva/tools/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Msg is the envelope of every API answer.
type Msg struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
	Data   any    `json:"data,omitempty"`
}

func Success(data any) *Msg {
	return &Msg{
		Code: http.StatusOK,
		Data: data,
	}
}

func Fail(err error) *Msg {
	ce := errs.AsCode(err)
	return &Msg{Code: ce.Code, Msg: ce.Msg, Detail: ce.Detail}
}

// Reply writes data, or err mapped to its HTTP status. Internal errors are
// logged with their stack.
func Reply(c *gin.Context, data any, err error) {
	if err != nil {
		code := errs.Code(err)
		if code == errs.ServerInternalError {
			logger.Error("[API] internal error", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.AbortWithStatusJSON(errs.HTTPStatus(code), Fail(err))
		return
	}
	c.JSON(http.StatusOK, Success(data))
}
