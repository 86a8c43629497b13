package events

import (
	"context"
	"log"

	"roomlock-backend/internal/hub"
	"roomlock-backend/internal/model"
	"roomlock-backend/internal/store"
)

// Recorder persists check-in/check-out reports from door controllers as
// immutable room logs and fans each recorded event out to the observer
// dashboards connected to the hub.
type Recorder struct {
	store    store.Store
	sessions *hub.Hub
}

// NewRecorder creates a recorder broadcasting through the given hub.
func NewRecorder(st store.Store, sessions *hub.Hub) *Recorder {
	return &Recorder{store: st, sessions: sessions}
}

// RoomLogReported handles one device report: resolve the reservation, append
// the log row, then broadcast. An unresolvable reservation reference still
// records the event with a null reference so the audit trail stays complete.
func (r *Recorder) RoomLogReported(ctx context.Context, session *hub.Session, report hub.RoomLogReport) {
	if report.Action != model.ActionCheckIn && report.Action != model.ActionCheckOut {
		log.Printf("ignoring room log with unknown action %q", report.Action)
		return
	}

	reservationID := report.ReservationID
	if reservationID == nil && report.Role == "user" {
		resolved, err := r.store.ResolveReservation(ctx, report.RoomID, report.UserID, report.CheckDate, report.Action)
		if err != nil {
			log.Printf("reservation resolution failed for room %s: %v", report.RoomID, err)
		} else {
			reservationID = resolved
		}
	}

	rec := &model.RoomLog{
		ReservationID: reservationID,
		UserID:        report.UserID,
		RoomID:        report.RoomID,
		Role:          report.Role,
		Action:        report.Action,
		CheckDate:     report.CheckDate,
		CheckTime:     report.CheckTime,
	}
	if err := r.store.InsertRoomLog(ctx, rec); err != nil {
		log.Printf("failed to record %s for room %s: %v", report.Action, report.RoomID, err)
		return
	}
	log.Printf("Recorded %s by %s (reservation=%v, room=%s)", report.Action, report.Role, reservationID, report.RoomID)

	r.broadcast(ctx, report, reservationID)
}

// broadcast enriches the event with the requester's display name and, for
// check-ins, the reservation's end time, then sends it to every observer.
func (r *Recorder) broadcast(ctx context.Context, report hub.RoomLogReport, reservationID *int64) {
	event := hub.CheckEvent{
		ReservationID: reservationID,
		RoomID:        report.RoomID,
		CheckDate:     report.CheckDate,
		CheckTime:     report.CheckTime,
	}

	if reservationID != nil {
		detail, err := r.store.ReservationDetail(ctx, *reservationID)
		if err != nil {
			log.Printf("failed to enrich broadcast for reservation %d: %v", *reservationID, err)
		} else {
			event.Username = detail.Username
			if report.Action == model.ActionCheckIn {
				event.EndTime = detail.EndTime
			}
		}
	}

	eventType := "room_checked_in"
	if report.Action == model.ActionCheckOut {
		eventType = "room_checked_out"
	}
	r.sessions.BroadcastToObservers(hub.Event{Type: eventType, Data: event})
}
