package handlers

import (
	"AapdaMitra/pkg/errors"
	"AapdaMitra/pkg/logger"
	"AapdaMitra/pkg/middleware"
	"AapdaMitra/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handlers) t(c *gin.Context, key string, data map[string]interface{}) string {
	return h.i18n.T(middleware.Lang(c), key, data)
}

func (h *Handlers) ok(c *gin.Context, status int, key string, data interface{}) {
	response.Notify(c, status, response.NewNotice(response.NoticeSuccess, h.t(c, key, nil)), data)
}

func (h *Handlers) abort(c *gin.Context, status int, key string, tmpl map[string]interface{}) {
	response.Abort(c, status, response.NewNotice(response.NoticeError, h.t(c, key, tmpl)), nil)
}

// fail answers err with the notice key and a status derived from its code.
func (h *Handlers) fail(c *gin.Context, err error, key string) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("route", c.FullPath()), zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("route", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	h.abort(c, status, key, nil)
}

func statusOf(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeValidation:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeConflict:
		return http.StatusConflict
	case errors.CodeUnauthorized:
		return http.StatusUnauthorized
	case errors.CodeGeneration:
		return http.StatusBadGateway
	case errors.CodeNoGateway:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
