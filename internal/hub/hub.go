package hub

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DeviceHandler reacts to device session events: a device asking to join
// its room (which triggers on-demand delivery) and check-in/out reports.
type DeviceHandler interface {
	DeviceJoined(ctx context.Context, session *Session)
	RoomLogReported(ctx context.Context, session *Session, report RoomLogReport)
}

// Hub tracks live device and observer sessions. Device sessions are keyed by
// the room they serve; observers are an unordered set. Sessions are process
// local and safe to lose: devices and dashboards reconnect and re-identify.
type Hub struct {
	pingInterval time.Duration
	upgrader     websocket.Upgrader

	mu        sync.RWMutex
	devices   map[string]*Session
	observers map[*Session]struct{}

	handler DeviceHandler
}

// New creates a hub. SetDeviceHandler must be called before serving.
func New(pingInterval time.Duration) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Devices and dashboards connect from arbitrary origins on the
			// local network; auth happens at the message level.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		devices:   make(map[string]*Session),
		observers: make(map[*Session]struct{}),
	}
}

// SetDeviceHandler wires the delivery coordinator and event recorder in.
// Split from New because the coordinator needs the hub to enumerate sessions.
func (h *Hub) SetDeviceHandler(handler DeviceHandler) {
	h.handler = handler
}

// ServeWS upgrades an HTTP request to a websocket session and runs its read
// loop until disconnect. The session stays anonymous until it identifies.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	s := &Session{hub: h, conn: conn, done: make(chan struct{})}
	go s.pingLoop(s.done)
	s.readLoop()
}

// SessionFor returns the live device session serving a room, if any.
func (h *Hub) SessionFor(roomID string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.devices[roomID]
	return s, ok
}

// DeviceSessions returns a snapshot of all identified device sessions.
func (h *Hub) DeviceSessions() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.devices))
	for _, s := range h.devices {
		out = append(out, s)
	}
	return out
}

// BroadcastToObservers sends an event to every observer session. Sessions
// whose write fails are left for their read loop to reap.
func (h *Hub) BroadcastToObservers(event Event) {
	h.mu.RLock()
	observers := make([]*Session, 0, len(h.observers))
	for s := range h.observers {
		observers = append(observers, s)
	}
	h.mu.RUnlock()

	for _, s := range observers {
		if err := s.Send(event); err != nil {
			log.Printf("observer broadcast failed: %v", err)
		}
	}
}

// route dispatches one inbound message. Messages from anonymous sessions
// other than identify are ignored.
func (h *Hub) route(s *Session, env envelope) {
	ctx := context.Background()

	if env.Type == "identify" {
		h.identify(s, env)
		return
	}

	s.mu.Lock()
	kind := s.kind
	s.mu.Unlock()
	if kind != kindDevice {
		return
	}

	switch {
	case env.Type == "join_room" || env.JoinRoom != "":
		roomID := env.RoomID
		if env.JoinRoom != "" {
			roomID = env.JoinRoom
		}
		if roomID == "" {
			return
		}
		h.rebind(s, roomID)
		if h.handler != nil {
			h.handler.DeviceJoined(ctx, s)
		}

	case env.Type == "room_log" || env.Type == "check_out":
		action := env.Action
		if env.Type == "check_out" {
			action = "check_out"
		}
		role := env.Role
		if role == "" {
			role = "user"
		}
		roomID := env.RoomID
		if roomID == "" {
			roomID = s.RoomID()
		}
		if h.handler != nil {
			h.handler.RoomLogReported(ctx, s, RoomLogReport{
				ReservationID: env.ReservationID,
				UserID:        env.UserID,
				RoomID:        roomID,
				Role:          role,
				Action:        action,
				CheckDate:     env.CheckDate,
				CheckTime:     env.CheckTime,
			})
		}
	}
}

func (h *Hub) identify(s *Session, env envelope) {
	switch env.Client {
	case "esp32":
		if env.RoomID == "" {
			log.Printf("device identify without room_id ignored")
			return
		}
		s.mu.Lock()
		s.kind = kindDevice
		s.roomID = env.RoomID
		s.mu.Unlock()

		h.mu.Lock()
		prev := h.devices[env.RoomID]
		h.devices[env.RoomID] = s
		h.mu.Unlock()
		// A reconnect replaces the previous session for the room.
		if prev != nil && prev != s {
			prev.conn.Close()
		}
		log.Printf("Registered device session for room %s", env.RoomID)

	case "web":
		s.mu.Lock()
		s.kind = kindObserver
		s.mu.Unlock()

		h.mu.Lock()
		h.observers[s] = struct{}{}
		h.mu.Unlock()
		log.Printf("Registered observer session")
	}
}

// rebind moves an identified device session to a (possibly different) room.
func (h *Hub) rebind(s *Session, roomID string) {
	s.mu.Lock()
	old := s.roomID
	s.roomID = roomID
	s.mu.Unlock()

	h.mu.Lock()
	if old != "" && h.devices[old] == s {
		delete(h.devices, old)
	}
	h.devices[roomID] = s
	h.mu.Unlock()
}

// drop removes a session from the registry on disconnect or liveness
// timeout. Reconnection creates a brand-new session; no state carries over.
func (h *Hub) drop(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if roomID := s.RoomID(); roomID != "" && h.devices[roomID] == s {
		delete(h.devices, roomID)
	}
	delete(h.observers, s)
}
