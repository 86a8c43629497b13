package model

import "time"

// Reservation status IDs. These are rows of the reservation_statuses lookup
// table, seeded at migration time. The set is closed: transitions between
// them are enforced by the booking service, never written directly.
const (
	StatusPending   int = 1
	StatusApproved  int = 2
	StatusRejected  int = 3
	StatusCancelled int = 4
)

// ReservationStatus is the seeded lookup row behind Reservation.StatusID.
type ReservationStatus struct {
	ID   int    `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"uniqueIndex;size:32;not null"`
}

// Reservation is a requested exclusive use of a room for one half-open
// interval [StartTime, EndTime) on a calendar date.
//
// Date is "YYYY-MM-DD" and StartTime/EndTime are zero-padded "HH:MM", so
// string comparison orders them correctly both in SQL and in Go.
type Reservation struct {
	ID          int64  `gorm:"primaryKey"`
	UserID      int64  `gorm:"index;not null"`
	RoomID      string `gorm:"index:idx_reservations_room_date;size:32;not null"`
	Date        string `gorm:"index:idx_reservations_room_date;size:10;not null"`
	StartTime   string `gorm:"size:5;not null"`
	EndTime     string `gorm:"size:5;not null"`
	Description string `gorm:"size:512"`

	// UnlockKey is the single-use credential handed to the door controller.
	// Generated at creation, disclosed to the requester on approval.
	UnlockKey string `gorm:"uniqueIndex;size:6;not null"`

	// Delivered flips to true exactly once, when the key has been pushed to
	// the device serving the room.
	Delivered bool `gorm:"not null;default:false"`

	StatusID   int    `gorm:"index;not null"`
	ApprovedBy *int64 // admin who approved or rejected; nil while pending

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StartsAt and EndsAt interpret the date/time strings in the given location.
func (r *Reservation) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.StartTime, loc)
}

func (r *Reservation) EndsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.EndTime, loc)
}
