package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"roomlock-backend/internal/model"
)

// GetRoom returns a room by id.
func (s *gormStore) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).First(&room, "id = ?", roomID).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns all rooms, optionally including disabled ones.
func (s *gormStore) ListRooms(ctx context.Context, includeDisabled bool) ([]model.Room, error) {
	var rooms []model.Room
	q := s.db.WithContext(ctx).Order("id ASC")
	if !includeDisabled {
		q = q.Where("disabled = ?", false)
	}
	if err := q.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom inserts a new room.
func (s *gormStore) CreateRoom(ctx context.Context, room *model.Room) error {
	return s.db.WithContext(ctx).Create(room).Error
}

// UpdateRoom updates name and description of an existing room.
func (s *gormStore) UpdateRoom(ctx context.Context, roomID, name, description string) error {
	result := s.db.WithContext(ctx).
		Model(&model.Room{}).
		Where("id = ?", roomID).
		Updates(map[string]any{
			"name":        name,
			"description": description,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetRoomDisabled toggles whether a room accepts new bookings.
func (s *gormStore) SetRoomDisabled(ctx context.Context, roomID string, disabled bool) error {
	result := s.db.WithContext(ctx).
		Model(&model.Room{}).
		Where("id = ?", roomID).
		Updates(map[string]any{"disabled": disabled, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteRoom removes a room together with everything referencing it, in
// dependency order (logs, then reservations, then the room itself) inside
// one transaction.
func (s *gormStore) DeleteRoom(ctx context.Context, roomID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room model.Room
		if err := tx.First(&room, "id = ?", roomID).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&model.RoomLog{}).Error; err != nil {
			return fmt.Errorf("failed to delete room logs for %s: %w", roomID, err)
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&model.Reservation{}).Error; err != nil {
			return fmt.Errorf("failed to delete reservations for %s: %w", roomID, err)
		}
		return tx.Delete(&model.Room{}, "id = ?", roomID).Error
	})
}

// GetUser returns a user by id.
func (s *gormStore) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user together with their reservations and logs, in
// dependency order, inside one transaction.
func (s *gormStore) DeleteUser(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.RoomLog{}).Error; err != nil {
			return fmt.Errorf("failed to delete room logs for user %d: %w", userID, err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Reservation{}).Error; err != nil {
			return fmt.Errorf("failed to delete reservations for user %d: %w", userID, err)
		}
		return tx.Delete(&model.User{}, userID).Error
	})
}
