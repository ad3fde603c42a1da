package handlers

import (
	"AapdaMitra/internal/guide"
	"AapdaMitra/internal/models"
	"AapdaMitra/pkg/errors"
	"AapdaMitra/pkg/response"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) handleGetGuide(c *gin.Context) {
	h.serveGuide(c, h.guides.Fetch)
}

func (h *Handlers) handleRefreshGuide(c *gin.Context) {
	h.serveGuide(c, h.guides.Refresh)
}

func (h *Handlers) serveGuide(c *gin.Context, load func(context.Context, models.DisasterType) (*guide.Result, error)) {
	dt := models.DisasterType(c.Param("type"))
	res, err := load(c.Request.Context(), dt)
	if err != nil {
		if errors.IsValidation(err) {
			h.abort(c, http.StatusBadRequest, "notice.guide_unknown", map[string]interface{}{"Type": string(dt)})
			return
		}
		h.fail(c, err, "notice.guide_failed")
		return
	}
	if res.Stale {
		response.Notify(c, http.StatusOK, response.NewNotice(response.NoticeError, h.t(c, "notice.guide_offline", nil)), res)
		return
	}
	response.Success(c, "ok", res)
}

type chatRequest struct {
	History []models.ChatMessage `json:"history"`
	Message string               `json:"message"`
}

func (h *Handlers) handleChatGreeting(c *gin.Context) {
	response.Success(c, "ok", h.chat.Greeting())
}

func (h *Handlers) handleChat(c *gin.Context) {
	var req chatRequest
	_ = c.ShouldBindJSON(&req)
	reply, err := h.chat.Reply(c.Request.Context(), req.History, req.Message)
	if err != nil {
		h.fail(c, err, "notice.chat_invalid")
		return
	}
	response.Success(c, "ok", reply)
}
