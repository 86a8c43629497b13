package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"roomlock-backend/internal/db"
	"roomlock-backend/internal/hub"
	"roomlock-backend/internal/model"
	"roomlock-backend/internal/store"
)

func newTestRecorder(t *testing.T) (*Recorder, store.Store) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))

	st := store.NewGormStore(gormDB)
	require.NoError(t, gormDB.Create(&model.User{ID: 1, Username: "alice"}).Error)
	require.NoError(t, gormDB.Create(&model.Room{ID: "r1", Name: "Room 1"}).Error)

	return NewRecorder(st, hub.New(10*time.Second)), st
}

func loadLogs(t *testing.T, st store.Store) []model.RoomLog {
	t.Helper()
	var logs []model.RoomLog
	require.NoError(t, st.DB().Find(&logs).Error)
	return logs
}

func TestRoomLogReported_ResolvesReservation(t *testing.T) {
	recorder, st := newTestRecorder(t)
	ctx := context.Background()

	res := &model.Reservation{
		UserID: 1, RoomID: "r1", Date: "2026-09-01",
		StartTime: "09:00", EndTime: "10:00",
		UnlockKey: "aaaaa1", StatusID: model.StatusApproved,
	}
	_, err := st.CreateReservation(ctx, res)
	require.NoError(t, err)

	recorder.RoomLogReported(ctx, nil, hub.RoomLogReport{
		UserID: 1, RoomID: "r1", Role: "user", Action: model.ActionCheckIn,
		CheckDate: "2026-09-01", CheckTime: "09:05:00",
	})

	logs := loadLogs(t, st)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].ReservationID)
	assert.Equal(t, res.ID, *logs[0].ReservationID)
}

func TestRoomLogReported_UnresolvableKeepsNullReference(t *testing.T) {
	recorder, st := newTestRecorder(t)
	ctx := context.Background()

	recorder.RoomLogReported(ctx, nil, hub.RoomLogReport{
		UserID: 1, RoomID: "r1", Role: "user", Action: model.ActionCheckOut,
		CheckDate: "2026-09-01", CheckTime: "18:00:00",
	})

	// No reservation matches, but the audit row is still written.
	logs := loadLogs(t, st)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].ReservationID)
	assert.Equal(t, model.ActionCheckOut, logs[0].Action)
}

func TestRoomLogReported_StaffSkipsResolution(t *testing.T) {
	recorder, st := newTestRecorder(t)
	ctx := context.Background()

	res := &model.Reservation{
		UserID: 1, RoomID: "r1", Date: "2026-09-01",
		StartTime: "09:00", EndTime: "10:00",
		UnlockKey: "aaaaa1", StatusID: model.StatusApproved,
	}
	_, err := st.CreateReservation(ctx, res)
	require.NoError(t, err)

	// A cleaner's entry is not tied to anyone's reservation.
	recorder.RoomLogReported(ctx, nil, hub.RoomLogReport{
		UserID: 1, RoomID: "r1", Role: "staff", Action: model.ActionCheckIn,
		CheckDate: "2026-09-01", CheckTime: "07:00:00",
	})

	logs := loadLogs(t, st)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].ReservationID)
	assert.Equal(t, "staff", logs[0].Role)
}

func TestRoomLogReported_UnknownActionIgnored(t *testing.T) {
	recorder, st := newTestRecorder(t)

	recorder.RoomLogReported(context.Background(), nil, hub.RoomLogReport{
		UserID: 1, RoomID: "r1", Role: "user", Action: "open_window",
		CheckDate: "2026-09-01", CheckTime: "09:05:00",
	})

	assert.Empty(t, loadLogs(t, st))
}
