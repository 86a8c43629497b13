package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"roomlock-backend/internal/model"
	"roomlock-backend/internal/mw"
)

// ApproveReservation handles POST /api/admin/reservations/:reservation_id/approve.
func (h *Handler) ApproveReservation(c *gin.Context) {
	id, ok := reservationIDParam(c)
	if !ok {
		return
	}
	if err := h.booking.Approve(c.Request.Context(), id, mw.UserID(c)); err != nil {
		h.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation approved. The unlock key will be sent shortly."})
}

// RejectReservation handles POST /api/admin/reservations/:reservation_id/reject.
func (h *Handler) RejectReservation(c *gin.Context) {
	id, ok := reservationIDParam(c)
	if !ok {
		return
	}
	if err := h.booking.Reject(c.Request.Context(), id, mw.UserID(c)); err != nil {
		h.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation rejected"})
}

// GetPendingReservations handles GET /api/admin/reservations/pending.
func (h *Handler) GetPendingReservations(c *gin.Context) {
	h.listReservations(c, model.StatusPending)
}

// GetApprovedReservations handles GET /api/admin/reservations/approved.
func (h *Handler) GetApprovedReservations(c *gin.Context) {
	h.listReservations(c, model.StatusApproved)
}

func (h *Handler) listReservations(c *gin.Context, statusID int) {
	rows, err := h.store.ListByStatus(c.Request.Context(), statusID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reservations"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"reservation_id": row.ID,
			"room_id":        row.RoomID,
			"username":       row.Username,
			"description":    row.Description,
			"date":           row.Date,
			"start_time":     row.StartTime,
			"end_time":       row.EndTime,
			"delivered":      row.Delivered,
			"last_action":    row.LastAction,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

type roomRequest struct {
	RoomID      string `json:"room_id"`
	RoomName    string `json:"room_name" binding:"required"`
	Description string `json:"description"`
}

// CreateRoom handles POST /api/admin/rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RoomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id is required"})
		return
	}

	room := &model.Room{ID: req.RoomID, Name: req.RoomName, Description: req.Description}
	if err := h.store.CreateRoom(c.Request.Context(), room); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Room already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Room created successfully"})
}

// EditRoom handles PUT /api/admin/rooms/:room_id.
func (h *Handler) EditRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.store.UpdateRoom(c.Request.Context(), c.Param("room_id"), req.RoomName, req.Description)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room updated successfully"})
}

// SetRoomDisabled handles POST /api/admin/rooms/:room_id/disable and /enable.
func (h *Handler) SetRoomDisabled(disabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.store.SetRoomDisabled(c.Request.Context(), c.Param("room_id"), disabled)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		if disabled {
			c.JSON(http.StatusOK, gin.H{"message": "Room has been disabled for booking"})
		} else {
			c.JSON(http.StatusOK, gin.H{"message": "Room has been enabled for booking"})
		}
	}
}

// DeleteRoom handles DELETE /api/admin/rooms/:room_id. Logs and reservations
// referencing the room are removed with it, in one transaction.
func (h *Handler) DeleteRoom(c *gin.Context) {
	err := h.store.DeleteRoom(c.Request.Context(), c.Param("room_id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully"})
}

// DeleteUser handles DELETE /api/admin/users/:user_id with the same cascade.
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id parameter"})
		return
	}

	err = h.store.DeleteUser(c.Request.Context(), userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func reservationIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("reservation_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reservation_id parameter"})
		return 0, false
	}
	return id, true
}
