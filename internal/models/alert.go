package models

import (
	"strings"
	"time"
)

type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "High"
	SeverityMedium AlertSeverity = "Medium"
	SeverityLow    AlertSeverity = "Low"
)

func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// AlertTypeUserReport marks alerts submitted through incident reporting.
const AlertTypeUserReport = "User Report"

// Alert 预警信息
type Alert struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Type      string        `gorm:"size:64;index" json:"type"`
	Area      string        `gorm:"size:255;index" json:"area"`
	Severity  AlertSeverity `gorm:"size:16;index" json:"severity"`
	Message   string        `gorm:"type:text" json:"message"`
	Time      string        `gorm:"size:64" json:"time"`
	Image     string        `gorm:"type:text" json:"image,omitempty"`
	CreatedAt time.Time     `json:"-"`
}

func (Alert) TableName() string { return "alerts" }

func (a *Alert) IsUserReport() bool { return a.Type == AlertTypeUserReport }

// Style is the presentation class: user reports ignore severity.
func (a *Alert) Style() string {
	if a.IsUserReport() {
		return "user-report"
	}
	return strings.ToLower(string(a.Severity))
}
