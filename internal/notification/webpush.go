package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"roomlock-backend/internal/model"
)

// PushTransport abstracts the actual web push call so tests can intercept it.
type PushTransport interface {
	Push(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// webpushTransport is the real implementation using the webpush library.
type webpushTransport struct{}

func (webpushTransport) Push(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WebPushSender broadcasts lifecycle notices to every subscribed admin
// dashboard. Expired subscriptions (HTTP 410) are deleted as they are found.
type WebPushSender struct {
	db        *gorm.DB
	options   *webpush.Options
	transport PushTransport
}

// NewWebPushSender creates a sender backed by the subscriptions table.
func NewWebPushSender(db *gorm.DB, options *webpush.Options) *WebPushSender {
	return &WebPushSender{db: db, options: options, transport: webpushTransport{}}
}

// SetTransport replaces the push transport; used by tests.
func (w *WebPushSender) SetTransport(t PushTransport) { w.transport = t }

func (w *WebPushSender) Name() string { return "webpush" }

type pushPayload struct {
	Kind          Kind   `json:"kind"`
	ReservationID int64  `json:"reservation_id"`
	Username      string `json:"username"`
	RoomID        string `json:"room_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

// Send pushes the notice to all stored subscriptions.
func (w *WebPushSender) Send(ctx context.Context, n Notice) error {
	var subscriptions []model.PushSubscription
	if err := w.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		return fmt.Errorf("failed to fetch push subscriptions: %w", err)
	}
	if len(subscriptions) == 0 {
		return nil
	}

	payload, err := json.Marshal(pushPayload{
		Kind:          n.Kind,
		ReservationID: n.ReservationID,
		Username:      n.Username,
		RoomID:        n.RoomID,
		Date:          n.Date,
		StartTime:     n.StartTime,
		EndTime:       n.EndTime,
	})
	if err != nil {
		return err
	}

	for _, sub := range subscriptions {
		w.push(ctx, sub, payload)
	}
	return nil
}

func (w *WebPushSender) push(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := w.transport.Push(payload, wpSub, w.options)
	if err != nil {
		log.Printf("Error sending push notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Push subscription %s is expired. Deleting.", sub.Endpoint)
		if err := w.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
