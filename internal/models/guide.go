package models

import (
	"strings"
	"time"
)

type DisasterType string

const (
	Earthquake DisasterType = "Earthquake"
	Flood      DisasterType = "Flood"
	Cyclone    DisasterType = "Cyclone"
	Landslide  DisasterType = "Landslide"
	Heatwave   DisasterType = "Heatwave"
	Tsunami    DisasterType = "Tsunami"
)

var DisasterTypes = []DisasterType{Earthquake, Flood, Cyclone, Landslide, Heatwave, Tsunami}

// ParseDisasterType matches case-insensitively.
func ParseDisasterType(s string) (DisasterType, bool) {
	for _, dt := range DisasterTypes {
		if strings.EqualFold(string(dt), strings.TrimSpace(s)) {
			return dt, true
		}
	}
	return "", false
}

// SurvivalGuideCache holds at most one generated guide per disaster type.
type SurvivalGuideCache struct {
	DisasterType DisasterType `gorm:"primaryKey;size:32" json:"disasterType"`
	Guide        string       `gorm:"type:text" json:"guide"`
	Timestamp    time.Time    `json:"timestamp"`
}

func (SurvivalGuideCache) TableName() string { return "survival_guides" }
