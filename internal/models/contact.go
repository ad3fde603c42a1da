package models

import (
	"strings"
	"time"
)

// PersonalContact is a user-maintained emergency contact.
type PersonalContact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null;index" json:"name"`
	Number    string    `gorm:"size:32;not null;index" json:"number"`
	CreatedAt time.Time `json:"-"`
}

func (PersonalContact) TableName() string { return "personal_contacts" }

// Normalize trims input and reports whether the contact can be created.
func (c *PersonalContact) Normalize() bool {
	c.Name = strings.TrimSpace(c.Name)
	c.Number = strings.TrimSpace(c.Number)
	return c.Name != "" && c.Number != ""
}

// Helpline is a static national number, never persisted.
type Helpline struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

var NationalHelplines = []Helpline{
	{Name: "National Emergency Number", Number: "112"},
	{Name: "Police", Number: "100"},
	{Name: "Fire", Number: "101"},
	{Name: "Ambulance", Number: "102"},
	{Name: "Disaster Management Services", Number: "108"},
	{Name: "Women Helpline", Number: "1091"},
	{Name: "Child Helpline", Number: "1098"},
}
