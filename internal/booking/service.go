package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"gorm.io/gorm"

	"roomlock-backend/internal/clock"
	"roomlock-backend/internal/model"
	"roomlock-backend/internal/notification"
	"roomlock-backend/internal/store"
)

// Notifier dispatches best-effort lifecycle notices after commit.
type Notifier interface {
	Dispatch(n notification.Notice)
}

// Discloser hands the unlock key to the requester once a reservation is
// approved. Failures are logged, never returned to the approver.
type Discloser interface {
	Disclose(ctx context.Context, userID int64, email, unlockKey string, reservationID int64) error
}

// Service owns the reservation lifecycle: creation with conflict checking,
// approval, rejection and cancellation. All status mutations go through it.
type Service struct {
	store     store.Store
	clock     clock.Clock
	loc       *time.Location
	notifier  Notifier
	discloser Discloser
}

// NewService creates the lifecycle service. notifier and discloser may be nil
// (notices are then skipped), which tests use freely.
func NewService(st store.Store, clk clock.Clock, loc *time.Location, notifier Notifier, discloser Discloser) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: st, clock: clk, loc: loc, notifier: notifier, discloser: discloser}
}

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// CreateInput describes a booking request.
type CreateInput struct {
	UserID      int64
	RoomID      string
	Date        string // YYYY-MM-DD
	StartTime   string // HH:MM
	EndTime     string // HH:MM
	Description string
}

const maxKeyRetries = 3

// Create validates the request, checks for conflicts inside a transaction and
// inserts the reservation as pending with a fresh unlock key. On success it
// dispatches a best-effort "new pending" notice.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Reservation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	// Intervals entirely in the past are rejected before any transaction.
	endsAt, err := time.ParseInLocation("2006-01-02 15:04", in.Date+" "+in.EndTime, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date or time", ErrValidation)
	}
	if !endsAt.After(s.clock.Now()) {
		return nil, ErrPastInterval
	}

	user, err := s.store.GetUser(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	room, err := s.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if room.Disabled {
		return nil, ErrRoomUnavailable
	}

	res, err := s.insertWithFreshKey(ctx, in)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Dispatch(notification.Notice{
			Kind:          notification.KindNewPending,
			ReservationID: res.ID,
			Username:      user.Username,
			RoomID:        res.RoomID,
			Date:          res.Date,
			StartTime:     res.StartTime,
			EndTime:       res.EndTime,
			Description:   res.Description,
		})
	}
	return res, nil
}

// insertWithFreshKey retries the transactional insert when the generated key
// collides with an existing one. Collisions are astronomically rare but the
// unique index makes them a visible, retry-worthy error rather than a silent
// overwrite.
func (s *Service) insertWithFreshKey(ctx context.Context, in CreateInput) (*model.Reservation, error) {
	for attempt := 0; attempt < maxKeyRetries; attempt++ {
		key, err := NewUnlockKey()
		if err != nil {
			return nil, err
		}

		res := &model.Reservation{
			UserID:      in.UserID,
			RoomID:      in.RoomID,
			Date:        in.Date,
			StartTime:   in.StartTime,
			EndTime:     in.EndTime,
			Description: in.Description,
			UnlockKey:   key,
			Delivered:   false,
			StatusID:    model.StatusPending,
		}

		colliding, err := s.store.CreateReservation(ctx, res)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if colliding != nil {
			return nil, &ConflictError{Conflict: Conflict{
				RoomID:    colliding.RoomID,
				Date:      colliding.Date,
				StartTime: colliding.StartTime,
				EndTime:   colliding.EndTime,
			}}
		}
		return res, nil
	}
	return nil, fmt.Errorf("failed to insert reservation: unlock key collisions on %d attempts", maxKeyRetries)
}

// Approve transitions a pending reservation to approved and triggers
// asynchronous disclosure of the unlock key to the requester. Approval
// succeeds even when disclosure fails; the failure is logged for retry.
func (s *Service) Approve(ctx context.Context, reservationID, approverID int64) error {
	res, err := s.transition(ctx, reservationID, model.StatusApproved, &approverID)
	if err != nil {
		return err
	}

	user, err := s.store.GetUser(ctx, res.UserID)
	if err != nil {
		log.Printf("approved reservation %d but could not load requester %d: %v", res.ID, res.UserID, err)
		return nil
	}

	if s.discloser != nil {
		go func() {
			if err := s.discloser.Disclose(context.Background(), user.ID, user.Email, res.UnlockKey, res.ID); err != nil {
				log.Printf("failed to disclose unlock key for reservation %d: %v", res.ID, err)
			}
		}()
	}
	s.dispatch(notification.KindApproved, res, user.Username, res.UnlockKey)
	return nil
}

// Reject transitions a pending reservation to rejected.
func (s *Service) Reject(ctx context.Context, reservationID, approverID int64) error {
	res, err := s.transition(ctx, reservationID, model.StatusRejected, &approverID)
	if err != nil {
		return err
	}
	s.notifyForUser(ctx, notification.KindRejected, res)
	return nil
}

// Cancel transitions a pending reservation to cancelled. Only the original
// requester may cancel.
func (s *Service) Cancel(ctx context.Context, reservationID, requesterID int64) error {
	res, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if res.UserID != requesterID {
		return ErrForbidden
	}

	res, err = s.transition(ctx, reservationID, model.StatusCancelled, nil)
	if err != nil {
		return err
	}
	s.notifyForUser(ctx, notification.KindCancelled, res)
	return nil
}

// transition performs the conditional pending -> target update and reloads
// the row. A failed condition distinguishes "gone" from "not pending".
func (s *Service) transition(ctx context.Context, reservationID int64, target int, actorID *int64) (*model.Reservation, error) {
	ok, err := s.store.TransitionStatus(ctx, reservationID, model.StatusPending, target, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.store.GetReservation(ctx, reservationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return nil, ErrInvalidTransition
	}
	return s.store.GetReservation(ctx, reservationID)
}

func (s *Service) notifyForUser(ctx context.Context, kind notification.Kind, res *model.Reservation) {
	username := ""
	if user, err := s.store.GetUser(ctx, res.UserID); err == nil {
		username = user.Username
	}
	s.dispatch(kind, res, username, "")
}

func (s *Service) dispatch(kind notification.Kind, res *model.Reservation, username, unlockKey string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(notification.Notice{
		Kind:          kind,
		ReservationID: res.ID,
		Username:      username,
		RoomID:        res.RoomID,
		Date:          res.Date,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		Description:   res.Description,
		UnlockKey:     unlockKey,
	})
}

func validateInput(in CreateInput) error {
	switch {
	case in.UserID <= 0:
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	case in.RoomID == "":
		return fmt.Errorf("%w: room_id is required", ErrValidation)
	case !dateRe.MatchString(in.Date):
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	case !timeRe.MatchString(in.StartTime) || !timeRe.MatchString(in.EndTime):
		return fmt.Errorf("%w: times must be HH:MM", ErrValidation)
	case in.EndTime <= in.StartTime:
		return fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}
	return nil
}
