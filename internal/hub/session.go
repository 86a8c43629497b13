package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type clientKind int

const (
	kindAnonymous clientKind = iota
	kindDevice
	kindObserver
)

// Session is one live websocket connection. It starts anonymous and becomes
// a device or observer session on the first identify message. Writes are
// serialized through a per-session mutex because the transport does not
// support concurrent writers.
type Session struct {
	hub  *Hub
	conn *websocket.Conn

	writeMu sync.Mutex

	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	kind   clientKind
	roomID string
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// RoomID returns the room a device session serves ("" until identified).
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Send marshals v and writes it to the connection under the write lock.
func (s *Session) Send(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

func (s *Session) ping() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

const writeWait = 10 * time.Second

// readLoop consumes inbound messages until the connection dies. Liveness
// follows the ping/pong protocol: the read deadline is two ping intervals
// out and every pong pushes it forward, so a session that misses two probes
// is evicted by the deadline expiring.
func (s *Session) readLoop() {
	defer func() {
		s.hub.drop(s)
		s.close()
		s.conn.Close()
	}()

	pongWait := 2 * s.hub.pingInterval
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("Invalid websocket message: %v", err)
			continue
		}
		s.hub.route(s, env)
	}
}

// pingLoop probes the peer on the hub's interval until the session ends or
// a write fails (the read loop then notices the dead connection).
func (s *Session) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(s.hub.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := s.ping(); err != nil {
				return
			}
		}
	}
}
