package model

import "time"

// User is a minimal account record. Authentication happens upstream; the
// booking core only reads users for existence checks and display names.
type User struct {
	ID        int64  `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex;size:64;not null"`
	Email     string `gorm:"size:128"`
	Role      string `gorm:"size:16;not null;default:user"` // "user" | "admin"
	Disabled  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
