package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"roomlock-backend/internal/booking"
	"roomlock-backend/internal/clock"
	"roomlock-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	booking *booking.Service
	webpush *webpush.Options
	clock   clock.Clock
	loc     *time.Location
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, bookingSvc *booking.Service, webpushOptions *webpush.Options, clk clock.Clock, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		store:   s,
		booking: bookingSvc,
		webpush: webpushOptions,
		clock:   clk,
		loc:     loc,
	}
}
