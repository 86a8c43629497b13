package notification

// Kind identifies which lifecycle event a notice describes.
type Kind string

const (
	KindNewPending Kind = "new_pending"
	KindApproved   Kind = "approved"
	KindRejected   Kind = "rejected"
	KindCancelled  Kind = "cancelled"
)

// Notice is one best-effort notification job. Notices are fire-and-forget:
// they are dispatched after the owning transaction commits and a failed send
// never propagates back into the lifecycle operation that produced it.
type Notice struct {
	Kind          Kind
	ReservationID int64
	Username      string
	RoomID        string
	Date          string
	StartTime     string
	EndTime       string
	Description   string

	// UnlockKey is set only for KindApproved, where the requester must be
	// told their credential. Other kinds leave it empty.
	UnlockKey string
}
