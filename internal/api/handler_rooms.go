package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facility-monitor-backend/internal/model"
)

// LimitResponse is the configured range for one sensor type.
type LimitResponse struct {
	SensorType model.SensorType `json:"sensor_type"`
	LowerBound float64          `json:"lower_bound"`
	UpperBound float64          `json:"upper_bound"`
}

// RoomResponse represents the API response for a single room.
type RoomResponse struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Limits []LimitResponse `json:"limits"`
}

// GetRooms handles the GET /api/rooms request.
func (h *Handler) GetRooms(c *gin.Context) {
	rooms, err := h.store.Rooms(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rooms"})
		return
	}

	responses := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		limits := make([]LimitResponse, 0, len(room.Limits))
		for _, l := range room.Limits {
			limits = append(limits, LimitResponse{
				SensorType: l.SensorType,
				LowerBound: l.LowerBound,
				UpperBound: l.UpperBound,
			})
		}
		responses = append(responses, RoomResponse{ID: room.ID, Name: room.Name, Limits: limits})
	}
	c.JSON(http.StatusOK, responses)
}
