package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"roomlock-backend/internal/db"
	"roomlock-backend/internal/model"
)

// newTestStore opens a fresh in-memory SQLite database and runs migrations.
// Each test gets its own database, named after the test so parallel tests do
// not share state through the cache.
func newTestStore(t *testing.T) Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	// One connection keeps SQLite's writer serialization predictable under
	// the concurrent tests below.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return NewGormStore(gormDB)
}

func seedUser(t *testing.T, s Store, id int64, username string) {
	t.Helper()
	require.NoError(t, s.DB().Create(&model.User{ID: id, Username: username, Role: "user"}).Error)
}

func seedRoom(t *testing.T, s Store, id, name string) {
	t.Helper()
	require.NoError(t, s.CreateRoom(context.Background(), &model.Room{ID: id, Name: name}))
}

func makeReservation(userID int64, roomID, date, start, end, key string) *model.Reservation {
	return &model.Reservation{
		UserID:    userID,
		RoomID:    roomID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		UnlockKey: key,
		StatusID:  model.StatusPending,
	}
}

func TestCreateReservation_ConflictDetection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedRoom(t, s, "27.03.04", "Study Room A")

	colliding, err := s.CreateReservation(ctx, makeReservation(1, "27.03.04", "2026-09-01", "09:00", "10:00", "aaaaa1"))
	require.NoError(t, err)
	require.Nil(t, colliding)

	testCases := []struct {
		name     string
		start    string
		end      string
		conflict bool
	}{
		{"overlapping tail", "09:30", "10:30", true},
		{"overlapping head", "08:30", "09:30", true},
		{"fully contained", "09:15", "09:45", true},
		{"fully containing", "08:00", "11:00", true},
		{"touching end is free", "10:00", "11:00", false},
		{"touching start is free", "08:00", "09:00", false},
		{"disjoint", "12:00", "13:00", false},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key := fmt.Sprintf("key%03d", i)
			colliding, err := s.CreateReservation(ctx, makeReservation(1, "27.03.04", "2026-09-01", tc.start, tc.end, key))
			require.NoError(t, err)
			if tc.conflict {
				require.NotNil(t, colliding)
				assert.Equal(t, "09:00", colliding.StartTime)
				assert.Equal(t, "10:00", colliding.EndTime)
			} else {
				assert.Nil(t, colliding)
			}
		})
	}
}

func TestCreateReservation_IgnoresOtherRoomsDatesAndClosedStatuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedRoom(t, s, "r1", "Room 1")
	seedRoom(t, s, "r2", "Room 2")

	first := makeReservation(1, "r1", "2026-09-01", "09:00", "10:00", "aaaaa1")
	_, err := s.CreateReservation(ctx, first)
	require.NoError(t, err)

	// Same slot, different room.
	colliding, err := s.CreateReservation(ctx, makeReservation(1, "r2", "2026-09-01", "09:00", "10:00", "aaaaa2"))
	require.NoError(t, err)
	assert.Nil(t, colliding)

	// Same room and slot, different date.
	colliding, err = s.CreateReservation(ctx, makeReservation(1, "r1", "2026-09-02", "09:00", "10:00", "aaaaa3"))
	require.NoError(t, err)
	assert.Nil(t, colliding)

	// Rejecting the original frees the slot.
	ok, err := s.TransitionStatus(ctx, first.ID, model.StatusPending, model.StatusRejected, nil)
	require.NoError(t, err)
	require.True(t, ok)
	colliding, err = s.CreateReservation(ctx, makeReservation(1, "r1", "2026-09-01", "09:00", "10:00", "aaaaa4"))
	require.NoError(t, err)
	assert.Nil(t, colliding)
}

func TestCreateReservation_DuplicateUnlockKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedRoom(t, s, "r1", "Room 1")

	_, err := s.CreateReservation(ctx, makeReservation(1, "r1", "2026-09-01", "09:00", "10:00", "dupKey"))
	require.NoError(t, err)

	_, err = s.CreateReservation(ctx, makeReservation(1, "r1", "2026-09-01", "11:00", "12:00", "dupKey"))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCreateReservation_ConcurrentSameSlot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedUser(t, s, 2, "bob")
	seedRoom(t, s, "r1", "Room 1")

	const racers = 8
	var wg sync.WaitGroup
	inserted := make(chan int64, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := makeReservation(int64(i%2+1), "r1", "2026-09-01", "09:00", "10:00", fmt.Sprintf("race%02d", i))
			colliding, err := s.CreateReservation(ctx, res)
			if err == nil && colliding == nil {
				inserted <- res.ID
			}
		}(i)
	}
	wg.Wait()
	close(inserted)

	var winners int
	for range inserted {
		winners++
	}
	assert.Equal(t, 1, winners, "exactly one of the racing bookings must win the slot")

	var count int64
	require.NoError(t, s.DB().Model(&model.Reservation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTransitionStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedRoom(t, s, "r1", "Room 1")

	res := makeReservation(1, "r1", "2026-09-01", "09:00", "10:00", "aaaaa1")
	_, err := s.CreateReservation(ctx, res)
	require.NoError(t, err)

	admin := int64(42)
	ok, err := s.TransitionStatus(ctx, res.ID, model.StatusPending, model.StatusApproved, &admin)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.StatusID)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, admin, *got.ApprovedBy)

	// Approving again fails the condition: the row is no longer pending.
	ok, err = s.TransitionStatus(ctx, res.ID, model.StatusPending, model.StatusApproved, &admin)
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown id also reports false, not an error.
	ok, err = s.TransitionStatus(ctx, 99999, model.StatusPending, model.StatusApproved, &admin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkDelivered_ExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedRoom(t, s, "r1", "Room 1")

	res := makeReservation(1, "r1", "2026-09-01", "09:00", "10:00", "aaaaa1")
	_, err := s.CreateReservation(ctx, res)
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	wins := make(chan bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := s.MarkDelivered(ctx, res.ID)
			assert.NoError(t, err)
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for won := range wins {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one racing caller may observe the flip")

	got, err := s.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, got.Delivered)
}

func TestNextUndelivered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedRoom(t, s, "r1", "Room 1")

	early := makeReservation(1, "r1", "2026-09-01", "09:00", "10:00", "aaaaa1")
	late := makeReservation(1, "r1", "2026-09-01", "14:00", "15:00", "aaaaa2")
	for _, res := range []*model.Reservation{late, early} {
		_, err := s.CreateReservation(ctx, res)
		require.NoError(t, err)
	}

	// Nothing approved yet.
	got, err := s.NextUndelivered(ctx, "r1", "2026-09-01", "09:30")
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, res := range []*model.Reservation{late, early} {
		ok, err := s.TransitionStatus(ctx, res.ID, model.StatusPending, model.StatusApproved, nil)
		require.NoError(t, err)
		require.True(t, ok)
	}

	// Only the reservation whose window contains now is eligible.
	got, err = s.NextUndelivered(ctx, "r1", "2026-09-01", "09:30")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, early.ID, got.ID)

	// Between the two windows nothing is due.
	got, err = s.NextUndelivered(ctx, "r1", "2026-09-01", "12:00")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.NextUndelivered(ctx, "r1", "2026-09-01", "14:30")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, late.ID, got.ID)

	won, err := s.MarkDelivered(ctx, late.ID)
	require.NoError(t, err)
	require.True(t, won)

	got, err = s.NextUndelivered(ctx, "r1", "2026-09-01", "14:30")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNextUndelivered_ElapsedWindowDoesNotShadowDue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedRoom(t, s, "r1", "Room 1")

	// The morning key was never picked up; the afternoon one is due now.
	stale := makeReservation(1, "r1", "2026-09-01", "09:00", "10:00", "aaaaa1")
	due := makeReservation(1, "r1", "2026-09-01", "14:00", "15:00", "aaaaa2")
	for _, res := range []*model.Reservation{stale, due} {
		_, err := s.CreateReservation(ctx, res)
		require.NoError(t, err)
		ok, err := s.TransitionStatus(ctx, res.ID, model.StatusPending, model.StatusApproved, nil)
		require.NoError(t, err)
		require.True(t, ok)
	}

	got, err := s.NextUndelivered(ctx, "r1", "2026-09-01", "14:30")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, due.ID, got.ID)
}

func TestResolveReservation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedRoom(t, s, "r1", "Room 1")

	morning := makeReservation(1, "r1", "2026-09-01", "09:00", "10:00", "aaaaa1")
	afternoon := makeReservation(1, "r1", "2026-09-01", "14:00", "15:00", "aaaaa2")
	for _, res := range []*model.Reservation{morning, afternoon} {
		_, err := s.CreateReservation(ctx, res)
		require.NoError(t, err)
	}

	id, err := s.ResolveReservation(ctx, "r1", 1, "2026-09-01", model.ActionCheckIn)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, afternoon.ID, *id)

	id, err = s.ResolveReservation(ctx, "r1", 1, "2026-09-01", model.ActionCheckOut)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, afternoon.ID, *id)

	// No reservation for that user and date: nil, not an error.
	id, err = s.ResolveReservation(ctx, "r1", 99, "2026-09-01", model.ActionCheckIn)
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestDeleteRoom_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedRoom(t, s, "r1", "Room 1")
	seedRoom(t, s, "r2", "Room 2")

	res := makeReservation(1, "r1", "2026-09-01", "09:00", "10:00", "aaaaa1")
	_, err := s.CreateReservation(ctx, res)
	require.NoError(t, err)
	keep := makeReservation(1, "r2", "2026-09-01", "09:00", "10:00", "aaaaa2")
	_, err = s.CreateReservation(ctx, keep)
	require.NoError(t, err)

	require.NoError(t, s.InsertRoomLog(ctx, &model.RoomLog{
		ReservationID: &res.ID, UserID: 1, RoomID: "r1",
		Role: "user", Action: model.ActionCheckIn,
		CheckDate: "2026-09-01", CheckTime: "09:02:11",
	}))

	require.NoError(t, s.DeleteRoom(ctx, "r1"))

	_, err = s.GetRoom(ctx, "r1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var reservations, logs int64
	require.NoError(t, s.DB().Model(&model.Reservation{}).Where("room_id = ?", "r1").Count(&reservations).Error)
	require.NoError(t, s.DB().Model(&model.RoomLog{}).Where("room_id = ?", "r1").Count(&logs).Error)
	assert.Zero(t, reservations)
	assert.Zero(t, logs)

	// Unrelated room untouched.
	_, err = s.GetReservation(ctx, keep.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, s.DeleteRoom(ctx, "missing"), gorm.ErrRecordNotFound)
}

func TestDeleteUser_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedUser(t, s, 2, "bob")
	seedRoom(t, s, "r1", "Room 1")

	res := makeReservation(1, "r1", "2026-09-01", "09:00", "10:00", "aaaaa1")
	_, err := s.CreateReservation(ctx, res)
	require.NoError(t, err)
	keep := makeReservation(2, "r1", "2026-09-01", "11:00", "12:00", "aaaaa2")
	_, err = s.CreateReservation(ctx, keep)
	require.NoError(t, err)

	require.NoError(t, s.InsertRoomLog(ctx, &model.RoomLog{
		ReservationID: &res.ID, UserID: 1, RoomID: "r1",
		Role: "user", Action: model.ActionCheckOut,
		CheckDate: "2026-09-01", CheckTime: "09:58:40",
	}))

	require.NoError(t, s.DeleteUser(ctx, 1))

	_, err = s.GetUser(ctx, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var reservations, logs int64
	require.NoError(t, s.DB().Model(&model.Reservation{}).Where("user_id = ?", 1).Count(&reservations).Error)
	require.NoError(t, s.DB().Model(&model.RoomLog{}).Where("user_id = ?", 1).Count(&logs).Error)
	assert.Zero(t, reservations)
	assert.Zero(t, logs)

	_, err = s.GetReservation(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestListByStatus_JoinsUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 1, "alice")
	seedRoom(t, s, "r1", "Room 1")

	res := makeReservation(1, "r1", "2026-09-01", "09:00", "10:00", "aaaaa1")
	_, err := s.CreateReservation(ctx, res)
	require.NoError(t, err)

	rows, err := s.ListByStatus(ctx, model.StatusPending)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].Username)
	assert.Equal(t, res.ID, rows[0].ID)
	assert.Empty(t, rows[0].LastAction)

	// The latest device-reported action rides along.
	for _, action := range []string{model.ActionCheckIn, model.ActionCheckOut} {
		require.NoError(t, s.InsertRoomLog(ctx, &model.RoomLog{
			ReservationID: &res.ID, UserID: 1, RoomID: "r1",
			Role: "user", Action: action,
			CheckDate: "2026-09-01", CheckTime: "09:00:00",
		}))
	}
	rows, err = s.ListByStatus(ctx, model.StatusPending)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.ActionCheckOut, rows[0].LastAction)

	rows, err = s.ListByStatus(ctx, model.StatusApproved)
	require.NoError(t, err)
	assert.Empty(t, rows)

	detail, err := s.ReservationDetail(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", detail.Username)

	_, err = s.ReservationDetail(ctx, 99999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
