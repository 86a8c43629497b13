package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("invalid reservation data")
	ErrPastInterval      = errors.New("reservation interval is entirely in the past")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomUnavailable   = errors.New("room is disabled for booking")
	ErrUserNotFound      = errors.New("user not found")
	ErrNotFound          = errors.New("reservation not found")
	ErrForbidden         = errors.New("operation not permitted for this user")
	ErrInvalidTransition = errors.New("reservation is not pending")
)

// Conflict describes the existing interval a new reservation collided with.
type Conflict struct {
	RoomID    string `json:"room_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ConflictError reports an interval overlap on the same room and date.
// It carries the colliding interval so callers can show it to the requester.
type ConflictError struct {
	Conflict Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("reservation conflict: room %s on %s between %s and %s",
		e.Conflict.RoomID, e.Conflict.Date, e.Conflict.StartTime, e.Conflict.EndTime)
}

// AsConflict unwraps a ConflictError from err, if present.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
