package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roomlock-backend/internal/model"
)

// reservationBlockingStatuses are the statuses that occupy an interval.
// Rejected and cancelled reservations free their slot.
var reservationBlockingStatuses = []int{model.StatusPending, model.StatusApproved}

// CreateReservation inserts a pending reservation after re-checking for an
// interval conflict inside the same transaction as the insert, so that two
// concurrent bookings cannot both observe "no conflict".
//
// On conflict it returns the colliding reservation and no error; the caller
// turns that into its conflict result. The transaction is rolled back either
// way when no row was inserted.
func (s *gormStore) CreateReservation(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	var colliding *model.Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent bookings for the same room. Postgres needs the
		// room row locked for the duration of check + insert; SQLite already
		// serializes writing transactions on its own.
		roomQuery := tx.Model(&model.Room{})
		if tx.Dialector.Name() == "postgres" {
			roomQuery = roomQuery.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var room model.Room
		if err := roomQuery.Where("id = ?", res.RoomID).First(&room).Error; err != nil {
			return fmt.Errorf("failed to lock room %s: %w", res.RoomID, err)
		}

		// Half-open overlap test: touching endpoints are not a conflict.
		var existing model.Reservation
		err := tx.
			Where("room_id = ? AND date = ? AND status_id IN ?", res.RoomID, res.Date, reservationBlockingStatuses).
			Where("start_time < ? AND end_time > ?", res.EndTime, res.StartTime).
			Order("start_time ASC").
			First(&existing).Error
		if err == nil {
			colliding = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("conflict check failed: %w", err)
		}

		if err := tx.Create(res).Error; err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return colliding, nil
}

// GetReservation returns a reservation by id.
func (s *gormStore) GetReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	var res model.Reservation
	if err := s.db.WithContext(ctx).First(&res, id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// TransitionStatus moves a reservation from one status to another with a
// conditional update. It reports false when the reservation was not in the
// expected source status, which is how double approvals and transitions out
// of terminal states are rejected without reading first.
func (s *gormStore) TransitionStatus(ctx context.Context, id int64, from, to int, actorID *int64) (bool, error) {
	updates := map[string]any{
		"status_id":  to,
		"updated_at": time.Now(),
	}
	if actorID != nil {
		updates["approved_by"] = *actorID
	}

	result := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND status_id = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition reservation %d: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ListUserReservations returns all reservations of one requester, newest first.
func (s *gormStore) ListUserReservations(ctx context.Context, userID int64) ([]ReservationView, error) {
	var rows []ReservationView
	err := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Select("reservations.*, users.username").
		Joins("JOIN users ON users.id = reservations.user_id").
		Where("reservations.user_id = ?", userID).
		Order("reservations.date DESC, reservations.start_time DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByStatus returns all reservations in the given status ordered by
// window, each with the latest check action a device reported for it.
func (s *gormStore) ListByStatus(ctx context.Context, statusID int) ([]ReservationView, error) {
	var rows []ReservationView
	err := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Select("reservations.*, users.username, " +
			"COALESCE((SELECT action FROM room_logs WHERE room_logs.reservation_id = reservations.id " +
			"ORDER BY room_logs.id DESC LIMIT 1), '') AS last_action").
		Joins("JOIN users ON users.id = reservations.user_id").
		Where("reservations.status_id = ?", statusID).
		Order("reservations.date ASC, reservations.start_time ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// NextUndelivered returns the earliest-starting approved reservation for the
// room and date whose unlock key has not been pushed to a device yet and
// whose window contains now ("HH:MM"), or nil. The window condition lives in
// the query so a reservation that expired undelivered (device offline for
// its whole window) cannot shadow the one that is currently due.
func (s *gormStore) NextUndelivered(ctx context.Context, roomID, date, now string) (*model.Reservation, error) {
	var res model.Reservation
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND date = ? AND status_id = ? AND delivered = ?",
			roomID, date, model.StatusApproved, false).
		Where("start_time <= ? AND end_time > ?", now, now).
		Order("start_time ASC").
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// MarkDelivered flips the delivered flag, conditional on it still being
// false. Exactly one of any number of racing callers observes true; the rest
// must skip their send.
func (s *gormStore) MarkDelivered(ctx context.Context, id int64) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND delivered = ?", id, false).
		Updates(map[string]any{"delivered": true, "updated_at": time.Now()})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark reservation %d delivered: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ReservationDetail returns one reservation joined with its requester's name.
func (s *gormStore) ReservationDetail(ctx context.Context, id int64) (*ReservationView, error) {
	var row ReservationView
	err := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Select("reservations.*, users.username").
		Joins("JOIN users ON users.id = reservations.user_id").
		Where("reservations.id = ?", id).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}
