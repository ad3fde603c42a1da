package handlers

import (
	"AapdaMitra/pkg/response"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type meshMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handlers) handleMeshSnapshot(c *gin.Context) {
	response.Success(c, "ok", h.mesh.Snapshot())
}

func (h *Handlers) handleMeshToggle(c *gin.Context) {
	h.mesh.Toggle()
	response.Success(c, "ok", h.mesh.Snapshot())
}

func (h *Handlers) handleMeshMessage(c *gin.Context) {
	var req meshMessageRequest
	_ = c.ShouldBindJSON(&req)
	h.mesh.SetMessage(req.Message)
	response.Success(c, "ok", h.mesh.Snapshot())
}

// handleMeshSOS starts relaying the given message, or the stored draft
// when the body has none. Progress arrives through /mesh/events.
func (h *Handlers) handleMeshSOS(c *gin.Context) {
	var req meshMessageRequest
	_ = c.ShouldBindJSON(&req)
	msg := req.Message
	if strings.TrimSpace(msg) == "" {
		msg = h.mesh.Snapshot().Message
	}

	if err := h.mesh.Dispatch(msg); err != nil {
		h.fail(c, err, meshErrorKey(err))
		return
	}
	h.ok(c, http.StatusAccepted, "notice.mesh_sos_sent", h.mesh.Snapshot())
}

func (h *Handlers) handleMeshEvents(c *gin.Context) {
	h.events.Serve(c)
}
