package handlers

import (
	"AapdaMitra/internal/models"
	"AapdaMitra/pkg/errors"
	"AapdaMitra/pkg/response"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// profileUpdate merges only the fields present in the request.
type profileUpdate struct {
	Name   *string        `json:"name"`
	Phone  *string        `json:"phone"`
	Age    *int           `json:"age"`
	Gender *models.Gender `json:"gender"`
}

func (h *Handlers) handleGetProfile(c *gin.Context) {
	p, err := h.store.LoadProfile(c.Request.Context())
	if err != nil {
		h.fail(c, err, "notice.profile_load_failed")
		return
	}
	response.Success(c, "ok", p)
}

func (h *Handlers) handleUpdateProfile(c *gin.Context) {
	var req profileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.Validation("invalid profile: %v", err), "notice.profile_invalid")
		return
	}

	ctx := c.Request.Context()
	p, err := h.store.LoadProfile(ctx)
	if err != nil {
		h.fail(c, err, "notice.profile_load_failed")
		return
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	p.ID = models.ProfileID
	if err := p.Validate(); err != nil {
		h.fail(c, errors.Validation("%v", err), "notice.profile_invalid")
		return
	}

	if _, err := h.store.Profiles.Put(ctx, p); err != nil {
		h.fail(c, err, "notice.profile_save_failed")
		return
	}
	h.ok(c, http.StatusOK, "notice.profile_saved", p)
}

func (h *Handlers) handleListContacts(c *gin.Context) {
	contacts, err := h.store.Contacts.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, "notice.contacts_load_failed")
		return
	}
	response.Success(c, "ok", contacts)
}

func (h *Handlers) handleCreateContact(c *gin.Context) {
	var contact models.PersonalContact
	if err := c.ShouldBindJSON(&contact); err != nil || !contact.Normalize() {
		h.fail(c, errors.Validation("name and number are required"), "notice.contact_invalid")
		return
	}
	contact.ID = 0
	if _, err := h.store.Contacts.Put(c.Request.Context(), &contact); err != nil {
		h.fail(c, err, "notice.contact_save_failed")
		return
	}
	h.ok(c, http.StatusCreated, "notice.contact_saved", contact)
}

func (h *Handlers) handleDeleteContact(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		h.fail(c, errors.Validation("invalid contact id %q", c.Param("id")), "notice.contact_delete_failed")
		return
	}
	if err := h.store.Contacts.Delete(c.Request.Context(), uint(id)); err != nil {
		h.fail(c, err, "notice.contact_delete_failed")
		return
	}
	h.ok(c, http.StatusOK, "notice.contact_deleted", nil)
}

func (h *Handlers) handleListHelplines(c *gin.Context) {
	response.Success(c, "ok", models.NationalHelplines)
}
