package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"roomlock-backend/internal/hub"
	"roomlock-backend/internal/mw"
)

// NewRouter creates and configures the Gin router, including the websocket
// endpoint devices and observer dashboards connect to.
func NewRouter(h *Handler, sessions *hub.Hub, rateLimit rate.Limit, cacheTTL time.Duration) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rateLimit, 5)

	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// Device and observer connections; identification happens in-band.
	r.GET("/ws", func(c *gin.Context) {
		sessions.ServeWS(c.Writer, c.Request)
	})

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/rooms", caching, h.GetRooms)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		authed := api.Group("")
		authed.Use(mw.Identity())
		{
			authed.POST("/reservations", h.CreateReservation)
			authed.GET("/reservations/mine", h.GetMyReservations)
			authed.POST("/reservations/:reservation_id/cancel", h.CancelReservation)
		}

		admin := api.Group("/admin")
		admin.Use(mw.Identity(), mw.RequireAdmin())
		{
			admin.POST("/reservations/:reservation_id/approve", h.ApproveReservation)
			admin.POST("/reservations/:reservation_id/reject", h.RejectReservation)
			admin.GET("/reservations/pending", h.GetPendingReservations)
			admin.GET("/reservations/approved", h.GetApprovedReservations)

			admin.POST("/rooms", h.CreateRoom)
			admin.PUT("/rooms/:room_id", h.EditRoom)
			admin.POST("/rooms/:room_id/disable", h.SetRoomDisabled(true))
			admin.POST("/rooms/:room_id/enable", h.SetRoomDisabled(false))
			admin.DELETE("/rooms/:room_id", h.DeleteRoom)
			admin.DELETE("/users/:user_id", h.DeleteUser)

			admin.GET("/subscriptions", h.GetSubscription)
			admin.PUT("/subscriptions", h.PutSubscription)
			admin.DELETE("/subscriptions", h.DeleteSubscription)
		}
	}

	return r
}
