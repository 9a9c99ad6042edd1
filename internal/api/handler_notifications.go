package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"facility-monitor-backend/internal/climate"
	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/mw"
	"facility-monitor-backend/internal/store"
)

// NotificationResponse is one bell entry with its valid actions.
type NotificationResponse struct {
	ID        int64                      `json:"id"`
	Kind      model.NotificationKind     `json:"kind"`
	Header    string                     `json:"header"`
	Message   string                     `json:"message"`
	Severity  model.NotificationSeverity `json:"severity,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
	Actions   []model.NotificationAction `json:"actions"`
}

// GetNotifications lists the caller's bell entries, newest first.
func (h *Handler) GetNotifications(c *gin.Context) {
	userID, _ := mw.UserID(c)

	notifications, err := h.store.NotificationsByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}

	responses := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = NotificationResponse{
			ID:        n.ID,
			Kind:      n.Kind,
			Header:    n.Header,
			Message:   n.Message,
			Severity:  n.Severity,
			CreatedAt: n.CreatedAt,
			Actions:   n.Actions(),
		}
	}
	c.JSON(http.StatusOK, responses)
}

// DeleteNotification dismisses one of the caller's bell entries. Only the
// caller's own copy is affected.
func (h *Handler) DeleteNotification(c *gin.Context) {
	n, ok := h.ownNotification(c)
	if !ok {
		return
	}

	if err := h.store.DeleteNotification(c.Request.Context(), n.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete notification"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ConfirmNotification confirms the warning behind a bell entry.
func (h *Handler) ConfirmNotification(c *gin.Context) {
	h.actOnWarningNotification(c, model.WarningConfirmed)
}

// IgnoreNotification ignores the warning behind a bell entry.
func (h *Handler) IgnoreNotification(c *gin.Context) {
	h.actOnWarningNotification(c, model.WarningIgnored)
}

// actOnWarningNotification routes a bell action through the same token flow
// as the mail links, so both paths share one lifecycle.
func (h *Handler) actOnWarningNotification(c *gin.Context, status model.WarningStatus) {
	n, ok := h.ownNotification(c)
	if !ok {
		return
	}
	if n.Kind != model.KindWarning || n.TokenContent == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "notification has no warning attached"})
		return
	}

	warning, err := h.warnings.ApplyAction(c.Request.Context(), *n.TokenContent, status)
	if err != nil {
		switch {
		case errors.Is(err, climate.ErrInvalidToken):
			c.JSON(http.StatusConflict, gin.H{"error": "warning was already handled"})
		case errors.Is(err, climate.ErrWarningNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Warning not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply action"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": warning.Status.String()})
}

func (h *Handler) ownNotification(c *gin.Context) (*model.Notification, bool) {
	userID, _ := mw.UserID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return nil, false
	}

	n, err := h.store.NotificationByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notification"})
		return nil, false
	}
	if n.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return nil, false
	}
	return n, true
}
