package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"roomlock-backend/internal/model"
)

// ResolveReservation finds the reservation id a device report most likely
// belongs to when the device did not send one: latest reservation for the
// same room, user and date, ordered by the boundary matching the action
// (start time for check-in, end time for check-out). Returns nil when no
// candidate exists; the log row is then stored without a reservation
// reference instead of being dropped.
func (s *gormStore) ResolveReservation(ctx context.Context, roomID string, userID int64, date, action string) (*int64, error) {
	orderBy := "start_time DESC"
	if action == model.ActionCheckOut {
		orderBy = "end_time DESC"
	}

	var res model.Reservation
	err := s.db.WithContext(ctx).
		Select("id").
		Where("room_id = ? AND user_id = ? AND date = ?", roomID, userID, date).
		Order(orderBy).
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res.ID, nil
}

// InsertRoomLog appends an access event. Rows are immutable once written.
func (s *gormStore) InsertRoomLog(ctx context.Context, rec *model.RoomLog) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to insert room log: %w", err)
	}
	return nil
}
