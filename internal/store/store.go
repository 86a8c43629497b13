package store

import (
	"context"

	"gorm.io/gorm"

	"roomlock-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Rooms.
	GetRoom(ctx context.Context, roomID string) (*model.Room, error)
	ListRooms(ctx context.Context, includeDisabled bool) ([]model.Room, error)
	CreateRoom(ctx context.Context, room *model.Room) error
	UpdateRoom(ctx context.Context, roomID, name, description string) error
	SetRoomDisabled(ctx context.Context, roomID string, disabled bool) error
	DeleteRoom(ctx context.Context, roomID string) error

	// Users.
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	DeleteUser(ctx context.Context, userID int64) error

	// Reservations.
	CreateReservation(ctx context.Context, res *model.Reservation) (*model.Reservation, error)
	GetReservation(ctx context.Context, id int64) (*model.Reservation, error)
	TransitionStatus(ctx context.Context, id int64, from, to int, actorID *int64) (bool, error)
	ListUserReservations(ctx context.Context, userID int64) ([]ReservationView, error)
	ListByStatus(ctx context.Context, statusID int) ([]ReservationView, error)

	// Delivery.
	NextUndelivered(ctx context.Context, roomID, date, now string) (*model.Reservation, error)
	MarkDelivered(ctx context.Context, id int64) (bool, error)

	// Access events.
	ResolveReservation(ctx context.Context, roomID string, userID int64, date, action string) (*int64, error)
	InsertRoomLog(ctx context.Context, rec *model.RoomLog) error
	ReservationDetail(ctx context.Context, id int64) (*ReservationView, error)
}

// ReservationView is a reservation joined with its requester's display name.
// LastAction is the most recent check action recorded against it, if any.
type ReservationView struct {
	model.Reservation
	Username   string `json:"username"`
	LastAction string `json:"last_action"`
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for callers that compose their own reads.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}
