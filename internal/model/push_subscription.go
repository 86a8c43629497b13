package model

import "time"

// PushSubscription holds a browser push subscription for an admin dashboard.
// Subscribed dashboards receive a web push whenever a reservation enters or
// leaves the pending state.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
