package model

import "time"

// Room represents a bookable room with an electronic lock.
type Room struct {
	ID          string `gorm:"primaryKey;size:32"` // e.g. "27.03.04"
	Name        string `gorm:"size:128;not null"`
	Description string `gorm:"size:512"`
	Disabled    bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
