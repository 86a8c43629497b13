package model

import "time"

// Log actions reported by door controllers.
const (
	ActionCheckIn  = "check_in"
	ActionCheckOut = "check_out"
)

// RoomLog is an immutable record of a check-in or check-out observed by a
// door controller. Rows are append-only: never updated, never deleted except
// when cascading a room or user deletion.
//
// ReservationID is nullable; a device report that cannot be matched to a
// reservation is still recorded to preserve the audit trail.
type RoomLog struct {
	ID            int64  `gorm:"primaryKey"`
	ReservationID *int64 `gorm:"index"`
	UserID        int64  `gorm:"index;not null"`
	RoomID        string `gorm:"index;size:32;not null"`
	Role          string `gorm:"size:16;not null;default:user"`
	Action        string `gorm:"size:16;not null"`
	CheckDate     string `gorm:"size:10;not null"` // YYYY-MM-DD, device-reported
	CheckTime     string `gorm:"size:8;not null"`  // HH:MM:SS, device-reported
	CreatedAt     time.Time
}
