package handlers

import (
	"AapdaMitra/internal/models"
	"AapdaMitra/internal/store"
	"AapdaMitra/pkg/errors"
	"AapdaMitra/pkg/response"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	incidentTime        = "Just now"
	incidentDefaultArea = "Location Reported by User"
)

type alertView struct {
	models.Alert
	Style string `json:"style"`
}

func viewOf(a models.Alert) alertView {
	return alertView{Alert: a, Style: a.Style()}
}

// shelterView flags shelters reporting more free places than their capacity.
type shelterView struct {
	models.Shelter
	Overbooked bool `json:"overbooked"`
}

type incidentRequest struct {
	Description string `json:"description"`
	// Image is the captured photo as a data URL.
	Image string   `json:"image"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
}

// area formats the reporter's position the way alert cards show it.
func (r incidentRequest) area() string {
	if r.Lat == nil || r.Lon == nil {
		return incidentDefaultArea
	}
	return fmt.Sprintf("Lat: %.4f, Lon: %.4f", *r.Lat, *r.Lon)
}

// handleListAlerts lists alerts newest first.
func (h *Handlers) handleListAlerts(c *gin.Context) {
	alerts, err := h.store.Alerts.GetAll(c.Request.Context(), store.OrderBy("id"), store.Reverse())
	if err != nil {
		h.fail(c, err, "notice.alerts_load_failed")
		return
	}
	views := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, viewOf(a))
	}
	response.Success(c, "ok", views)
}

func (h *Handlers) handleReportIncident(c *gin.Context) {
	var req incidentRequest
	_ = c.ShouldBindJSON(&req)
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" || req.Image == "" {
		h.fail(c, errors.Validation("photo and description are required"), "notice.incident_invalid")
		return
	}

	alert := models.Alert{
		Type:     models.AlertTypeUserReport,
		Area:     req.area(),
		Severity: models.SeverityHigh,
		Message:  req.Description,
		Time:     incidentTime,
		Image:    req.Image,
	}
	if _, err := h.store.Alerts.Put(c.Request.Context(), &alert); err != nil {
		h.fail(c, err, "notice.incident_failed")
		return
	}
	h.ok(c, http.StatusCreated, "notice.incident_reported", viewOf(alert))
}

func (h *Handlers) handleListShelters(c *gin.Context) {
	shelters, err := h.store.Shelters.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, "notice.shelters_load_failed")
		return
	}
	views := make([]shelterView, 0, len(shelters))
	for i := range shelters {
		views = append(views, shelterView{Shelter: shelters[i], Overbooked: shelters[i].Overbooked()})
	}
	response.Success(c, "ok", views)
}
