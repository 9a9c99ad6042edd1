package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"facility-monitor-backend/internal/climate"
	"facility-monitor-backend/internal/model"
)

// GetWarningAction resolves the single-click confirm/ignore links embedded in
// warning mails. The status query parameter carries the numeric target
// status; only confirmed and ignored are reachable this way.
func (h *Handler) GetWarningAction(c *gin.Context) {
	tokenContent := c.Query("token")
	if tokenContent == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	statusValue, err := strconv.Atoi(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be numeric"})
		return
	}

	warning, err := h.warnings.ApplyAction(c.Request.Context(), tokenContent, model.WarningStatus(statusValue))
	if err != nil {
		switch {
		case errors.Is(err, climate.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "status not allowed"})
		case errors.Is(err, climate.ErrInvalidToken):
			c.JSON(http.StatusForbidden, gin.H{"error": "Token is not valid"})
		case errors.Is(err, climate.ErrWarningNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Warning not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply action"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("The violation of your room climate limits regarding %s was %s by you.",
			warning.SensorType.DisplayName(), warning.Status),
	})
}
