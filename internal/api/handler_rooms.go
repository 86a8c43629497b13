package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetRooms handles GET /api/rooms: all rooms currently open for booking.
func (h *Handler) GetRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context(), false)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rooms"})
		return
	}

	out := make([]gin.H, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, gin.H{
			"room_id":     room.ID,
			"room_name":   room.Name,
			"description": room.Description,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}
