package notification

import (
	"context"
	"log"
)

// LogDiscloser is the default credential disclosure channel: it records that
// the key became available for pickup. The rendered email with an embedded
// QR code is produced by a separate delivery service; approval must succeed
// even when that service is down, so failures here are never propagated.
type LogDiscloser struct{}

// Disclose logs the disclosure event for operator follow-up.
func (LogDiscloser) Disclose(ctx context.Context, userID int64, email, unlockKey string, reservationID int64) error {
	log.Printf("unlock key for reservation %d ready for user %d (%s)", reservationID, userID, email)
	return nil
}
