package handlers

import (
	"AapdaMitra/pkg/errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) handleSignup(c *gin.Context) {
	var req signupRequest
	_ = c.ShouldBindJSON(&req)
	if _, err := h.auth.SignUp(req.Name, req.Email, req.Password); err != nil {
		key := "notice.signup_invalid"
		if errors.GetCode(err) == errors.CodeConflict {
			key = "notice.signup_conflict"
		}
		h.fail(c, err, key)
		return
	}
	h.ok(c, http.StatusCreated, "notice.signed_up", nil)
}

func (h *Handlers) handleSignin(c *gin.Context) {
	var req signinRequest
	_ = c.ShouldBindJSON(&req)
	u, err := h.auth.SignIn(req.Email, req.Password)
	if err != nil {
		key := "notice.signin_invalid"
		if errors.GetCode(err) == errors.CodeUnauthorized {
			key = "notice.signin_failed"
		}
		h.fail(c, err, key)
		return
	}
	h.ok(c, http.StatusOK, "notice.signed_in", gin.H{"name": u.Name, "email": u.Email})
}
