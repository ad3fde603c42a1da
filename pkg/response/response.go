package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// NoticeTTL is how long a client shows a notice before dismissing it.
const NoticeTTL = 3 * time.Second

// Notice is a short user-facing message that disappears on its own.
type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	TTLMs   int64  `json:"ttl_ms"`
}

func NewNotice(typ, message string) *Notice {
	return &Notice{Type: typ, Message: message, TTLMs: NoticeTTL.Milliseconds()}
}

// Body is the JSON envelope of every API response.
type Body struct {
	Code   int         `json:"code"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data,omitempty"`
	Notice *Notice     `json:"notice,omitempty"`
}

func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: http.StatusOK, Msg: msg, Data: data})
}

// Fail answers 400 with msg as an error notice.
func Fail(c *gin.Context, msg string, data interface{}) {
	Abort(c, http.StatusBadRequest, NewNotice(NoticeError, msg), data)
}

// Notify answers status with a notice and keeps the handler chain going.
func Notify(c *gin.Context, status int, notice *Notice, data interface{}) {
	c.JSON(status, body(status, notice, data))
}

// Abort answers status with a notice and stops the handler chain.
func Abort(c *gin.Context, status int, notice *Notice, data interface{}) {
	c.AbortWithStatusJSON(status, body(status, notice, data))
}

func body(status int, notice *Notice, data interface{}) Body {
	b := Body{Code: status, Msg: http.StatusText(status), Data: data, Notice: notice}
	if notice != nil {
		b.Msg = notice.Message
	}
	return b
}
