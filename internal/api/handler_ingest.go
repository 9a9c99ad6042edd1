package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/store"
)

type measurementRequest struct {
	SensorID  int64     `json:"sensor_id" binding:"required"`
	Timestamp time.Time `json:"timestamp" binding:"required"`
	Value     float64   `json:"value"`
}

// PostMeasurements ingests a measurement batch from an access point. The
// batch is persisted, then evaluated against the room limits; violations
// feed the warning lifecycle.
func (h *Handler) PostMeasurements(c *gin.Context) {
	apID, ok := accessPointParam(c)
	if !ok {
		return
	}
	if !h.requireActive(c, apID) {
		return
	}

	var reqs []measurementRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty measurement batch"})
		return
	}

	ctx := c.Request.Context()
	if err := h.devices.Heartbeat(ctx, apID); err != nil {
		h.log.Error("heartbeat update failed", zap.Int64("access_point_id", apID), zap.Error(err))
	}

	measurements := make([]model.Measurement, len(reqs))
	for i, req := range reqs {
		measurements[i] = model.Measurement{
			SensorID:  req.SensorID,
			Timestamp: req.Timestamp,
			Value:     req.Value,
		}
	}
	if err := h.store.SaveMeasurements(ctx, measurements); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save measurements"})
		return
	}

	violations, err := h.checker.Evaluate(ctx, measurements)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to evaluate limits"})
		return
	}
	for _, v := range violations {
		if err := h.warnings.Process(ctx, v); err != nil {
			h.log.Error("processing violation failed",
				zap.Int64("device_id", v.Device.ID),
				zap.String("sensor_type", string(v.SensorType)),
				zap.Error(err))
		}
	}

	c.Status(http.StatusCreated)
}

type timeRecordRequest struct {
	DeviceID    int64          `json:"device_id" binding:"required"`
	WorkMode    model.WorkMode `json:"work_mode" binding:"required"`
	Project     string         `json:"project"`
	WorkGroup   string         `json:"work_group"`
	Description string         `json:"description"`
	StartTime   time.Time      `json:"start_time"`
}

// PostTimeRecords ingests a work mode change from a desk device. The record
// is booked for the device's owner; the previous open record is closed.
func (h *Handler) PostTimeRecords(c *gin.Context) {
	apID, ok := accessPointParam(c)
	if !ok {
		return
	}
	if !h.requireActive(c, apID) {
		return
	}

	var req timeRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.devices.Heartbeat(ctx, apID); err != nil {
		h.log.Error("heartbeat update failed", zap.Int64("access_point_id", apID), zap.Error(err))
	}

	owner, err := h.store.OwnerOfDevice(ctx, req.DeviceID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "device has no assigned user"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve device owner"})
		return
	}

	record, err := h.timetrack.Record(ctx, owner.ID, req.WorkMode, req.Project, req.WorkGroup, req.Description, req.StartTime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save time record"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": record.ID})
}

// PostHeartbeat records a standalone sign of life from an access point.
func (h *Handler) PostHeartbeat(c *gin.Context) {
	apID, ok := accessPointParam(c)
	if !ok {
		return
	}

	if err := h.devices.Heartbeat(c.Request.Context(), apID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record heartbeat"})
		return
	}
	c.Status(http.StatusNoContent)
}

func accessPointParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("access_point_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid access point id"})
		return 0, false
	}
	return id, true
}

// requireActive rejects requests from disabled or unknown access points.
func (h *Handler) requireActive(c *gin.Context, apID int64) bool {
	active, err := h.devices.Active(c.Request.Context(), apID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check access point"})
		return false
	}
	if !active {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access point is not active"})
		return false
	}
	return true
}
