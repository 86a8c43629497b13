package delivery

import (
	"context"
	"log"
	"time"

	"roomlock-backend/internal/clock"
	"roomlock-backend/internal/hub"
	"roomlock-backend/internal/store"
)

// Coordinator pushes the unlock key of each due, approved reservation to the
// device serving its room, at most once. It runs on demand when a device
// joins its room, and on a fixed sweep interval for devices that were offline
// when their reservation's window began.
type Coordinator struct {
	store    store.Store
	sessions *hub.Hub
	clock    clock.Clock
	loc      *time.Location
	interval time.Duration
}

// New creates a coordinator; Run starts the periodic sweep.
func New(st store.Store, sessions *hub.Hub, clk clock.Clock, loc *time.Location, interval time.Duration) *Coordinator {
	if loc == nil {
		loc = time.Local
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Coordinator{store: st, sessions: sessions, clock: clk, loc: loc, interval: interval}
}

// DeviceJoined delivers immediately when a device connects and asks for its
// room, so a reservation whose window already started is not stuck waiting
// for the next sweep.
func (c *Coordinator) DeviceJoined(ctx context.Context, session *hub.Session) {
	c.DeliverTo(ctx, session)
}

// Run sweeps all live device sessions on the configured interval until the
// context is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	log.Printf("delivery sweep started (interval %s)", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("delivery sweep shutting down")
			return
		case <-ticker.C:
			c.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs one delivery pass over every identified device session.
func (c *Coordinator) SweepOnce(ctx context.Context) {
	for _, session := range c.sessions.DeviceSessions() {
		c.DeliverTo(ctx, session)
	}
}

// DeliverTo pushes at most one due reservation to the given session.
//
// The delivered flag is flipped with a conditional update before the send:
// of any number of racing passes over the same reservation, exactly one wins
// the flip and performs the send, the rest skip silently. A send that fails
// after the flip is lost (the device has no acknowledgment channel), which
// makes delivery at-most-once by design.
func (c *Coordinator) DeliverTo(ctx context.Context, session *hub.Session) {
	roomID := session.RoomID()
	if roomID == "" {
		return
	}

	// The query only returns a reservation whose [start, end) window
	// contains now; anything stale or not yet due is filtered out there.
	now := c.clock.Now().In(c.loc)
	res, err := c.store.NextUndelivered(ctx, roomID, now.Format("2006-01-02"), now.Format("15:04"))
	if err != nil {
		log.Printf("delivery query failed for room %s: %v", roomID, err)
		return
	}
	if res == nil {
		return
	}

	detail, err := c.store.ReservationDetail(ctx, res.ID)
	if err != nil {
		log.Printf("failed to load reservation %d detail: %v", res.ID, err)
		return
	}

	won, err := c.store.MarkDelivered(ctx, res.ID)
	if err != nil {
		log.Printf("failed to mark reservation %d delivered: %v", res.ID, err)
		return
	}
	if !won {
		// A racing pass already delivered it.
		return
	}

	payload := hub.Event{
		Type: "room_data",
		Data: hub.RoomData{
			ReservationID: res.ID,
			UserID:        res.UserID,
			RoomID:        res.RoomID,
			Description:   res.Description,
			Date:          res.Date,
			StartTime:     res.StartTime,
			EndTime:       res.EndTime,
			UnlockKey:     res.UnlockKey,
			Username:      detail.Username,
		},
	}
	if err := session.Send(payload); err != nil {
		log.Printf("failed to send room_data for reservation %d to room %s: %v", res.ID, roomID, err)
		return
	}
	log.Printf("Sent room_data for reservation %d to room %s", res.ID, roomID)
}
