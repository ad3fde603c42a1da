package handlers

import (
	"AapdaMitra/pkg/errors"
	"AapdaMitra/pkg/mesh"
	"AapdaMitra/pkg/middleware"
	"AapdaMitra/pkg/response"
	"AapdaMitra/pkg/websocket"
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// Mesh control channel message types. Every state change is pushed to all
// connections as a "snapshot" message.
const (
	controlToggle   = "toggle"
	controlMessage  = "message"
	controlSOS      = "sos"
	controlSnapshot = "snapshot"
)

// handleMeshControl upgrades to the websocket control channel.
func (h *Handlers) handleMeshControl(c *gin.Context) {
	h.control.Serve(c.Writer, c.Request, map[string]string{middleware.LangKey: middleware.Lang(c)})
}

func (h *Handlers) handleControlMessage(conn *websocket.Connection, msg websocket.Message) {
	text, _ := msg.Data.(string)
	switch msg.Type {
	case controlToggle:
		h.mesh.Toggle()
	case controlMessage:
		h.mesh.SetMessage(text)
	case controlSOS:
		if strings.TrimSpace(text) == "" {
			text = h.mesh.Snapshot().Message
		}
		if err := h.mesh.Dispatch(text); err != nil {
			h.replyError(conn, meshErrorKey(err))
		}
	case controlSnapshot:
		_ = h.control.Reply(conn, controlSnapshot, h.mesh.Snapshot())
	default:
		_ = h.control.Reply(conn, websocket.MessageTypeError, "unknown message type: "+msg.Type)
	}
}

func (h *Handlers) replyError(conn *websocket.Connection, key string) {
	text := h.i18n.T(conn.Metadata[middleware.LangKey], key, nil)
	_ = h.control.Reply(conn, websocket.MessageTypeError, response.NewNotice(response.NoticeError, text))
}

// meshErrorKey maps a rejected send to its notice.
func meshErrorKey(err error) string {
	switch {
	case errors.IsValidation(err):
		return "notice.mesh_message_required"
	case stderrors.Is(err, mesh.ErrAlreadySending):
		return "notice.mesh_busy"
	default:
		return "notice.mesh_not_ready"
	}
}
