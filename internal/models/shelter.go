package models

// Shelter is a relief camp. Available <= Capacity is expected but not enforced.
type Shelter struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"size:255;index" json:"name"`
	Location  string  `gorm:"size:255;index" json:"location"`
	Distance  string  `gorm:"size:32" json:"distance"`
	Capacity  int     `json:"capacity"`
	Available int     `json:"available"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

func (Shelter) TableName() string { return "shelters" }

// Overbooked reports more free places than the shelter holds.
func (s *Shelter) Overbooked() bool { return s.Available > s.Capacity }
