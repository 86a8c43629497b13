package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roomlock-backend/internal/booking"
	"roomlock-backend/internal/model"
	"roomlock-backend/internal/mw"
)

type createReservationRequest struct {
	RoomID      string `json:"room_id" binding:"required"`
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	Description string `json:"description"`
}

// CreateReservation handles POST /api/reservations.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.booking.Create(c.Request.Context(), booking.CreateInput{
		UserID:      mw.UserID(c),
		RoomID:      req.RoomID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
	})
	if err != nil {
		h.bookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Reservation created successfully! Waiting for admin approval.",
		"data": gin.H{
			"reservation_id": res.ID,
			"room_id":        res.RoomID,
			"date":           res.Date,
			"start_time":     res.StartTime,
			"end_time":       res.EndTime,
			"unlock_key":     res.UnlockKey,
			"status":         "pending",
		},
	})
}

// GetMyReservations handles GET /api/reservations/mine. Only reservations
// whose window has not fully passed are returned.
func (h *Handler) GetMyReservations(c *gin.Context) {
	rows, err := h.store.ListUserReservations(c.Request.Context(), mw.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reservations"})
		return
	}

	now := h.clock.Now().In(h.loc)
	active := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		endsAt, err := row.EndsAt(h.loc)
		if err != nil || !endsAt.After(now) {
			continue
		}
		active = append(active, gin.H{
			"reservation_id": row.ID,
			"room_id":        row.RoomID,
			"date":           row.Date,
			"start_time":     row.StartTime,
			"end_time":       row.EndTime,
			"description":    row.Description,
			"unlock_key":     row.UnlockKey,
			"status":         statusName(row.StatusID),
			"created_at":     row.CreatedAt.Format("2006-01-02 15:04"),
			"updated_at":     row.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "active": active})
}

// CancelReservation handles POST /api/reservations/:reservation_id/cancel.
func (h *Handler) CancelReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("reservation_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reservation_id parameter"})
		return
	}

	if err := h.booking.Cancel(c.Request.Context(), id, mw.UserID(c)); err != nil {
		h.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation cancelled"})
}

// bookingError maps booking service errors onto HTTP responses.
func (h *Handler) bookingError(c *gin.Context, err error) {
	if ce, ok := booking.AsConflict(err); ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":    "Reservation conflict!",
			"conflict": ce.Conflict,
		})
		return
	}

	switch {
	case errors.Is(err, booking.ErrValidation), errors.Is(err, booking.ErrPastInterval):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, booking.ErrRoomNotFound), errors.Is(err, booking.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrRoomUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}

func statusName(statusID int) string {
	switch statusID {
	case model.StatusPending:
		return "pending"
	case model.StatusApproved:
		return "approved"
	case model.StatusRejected:
		return "rejected"
	case model.StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
