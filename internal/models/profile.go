package models

import "fmt"

type Gender string

const (
	GenderMale           Gender = "Male"
	GenderFemale         Gender = "Female"
	GenderOther          Gender = "Other"
	GenderPreferNotToSay Gender = "Prefer not to say"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

// ProfileID is the fixed key of the singleton profile row.
const ProfileID uint = 1

// UserProfile 用户资料（单例）
type UserProfile struct {
	ID     uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name   string `gorm:"size:128;index" json:"name"`
	Phone  string `gorm:"size:32;index" json:"phone"`
	Age    int    `gorm:"index" json:"age"`
	Gender Gender `gorm:"size:32;index" json:"gender"`
}

func (UserProfile) TableName() string { return "user_profiles" }

// DefaultProfile is written on first profile view.
func DefaultProfile() UserProfile {
	return UserProfile{
		ID:     ProfileID,
		Name:   "New User",
		Phone:  "1234567890",
		Age:    25,
		Gender: GenderPreferNotToSay,
	}
}

func (p *UserProfile) Validate() error {
	if !p.Gender.Valid() {
		return fmt.Errorf("invalid gender %q", p.Gender)
	}
	if p.Age < 0 {
		return fmt.Errorf("invalid age %d", p.Age)
	}
	return nil
}
