package hub

// envelope is the inbound wire format. Every message carries a type
// discriminator; identify additionally carries the client kind, and room_log
// carries the device-reported event fields.
type envelope struct {
	Type   string `json:"type"`
	Client string `json:"client,omitempty"`  // identify: "esp32" | "web"
	RoomID string `json:"room_id,omitempty"` // identify / join_room

	// Older door-controller firmware sends {"join_room": "<room>"} with no
	// type field; both spellings are accepted.
	JoinRoom string `json:"join_room,omitempty"`

	// room_log fields.
	ReservationID *int64 `json:"reservation_id,omitempty"`
	UserID        int64  `json:"user_id,omitempty"`
	Role          string `json:"role,omitempty"`
	Action        string `json:"action,omitempty"`
	CheckDate     string `json:"check_date,omitempty"`
	CheckTime     string `json:"check_time,omitempty"`
}

// RoomLogReport is a check-in/check-out report from an identified device.
type RoomLogReport struct {
	ReservationID *int64
	UserID        int64
	RoomID        string
	Role          string
	Action        string
	CheckDate     string
	CheckTime     string
}

// Event is an outbound message with a type discriminator and a data body.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// RoomData is the credential payload pushed to a door controller when an
// approved reservation's window is current.
type RoomData struct {
	ReservationID int64  `json:"reservation_id"`
	UserID        int64  `json:"user_id"`
	RoomID        string `json:"room_id"`
	Description   string `json:"description"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	UnlockKey     string `json:"unlock_key"`
	Username      string `json:"username"`
}

// CheckEvent is broadcast to observer dashboards after a room log is
// recorded. EndTime is set only for check-ins.
type CheckEvent struct {
	ReservationID *int64 `json:"reservation_id"`
	RoomID        string `json:"room_id"`
	Username      string `json:"username"`
	CheckDate     string `json:"check_date"`
	CheckTime     string `json:"check_time"`
	EndTime       string `json:"end_time,omitempty"`
}
