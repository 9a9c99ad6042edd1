package climate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/store"
)

// Violation is one measurement that fell outside the configured limit of its
// device's room.
type Violation struct {
	Measurement model.Measurement
	Device      *model.SensorDevice
	SensorType  model.SensorType
	Limit       model.Limit
}

// Checker evaluates measurement batches against the room limits of the
// devices that produced them.
type Checker struct {
	store      store.Store
	staleAfter time.Duration
	log        *zap.Logger
	now        func() time.Time
}

// NewChecker creates a limit checker. staleAfter bounds how old a measurement
// may be and still trigger a warning.
func NewChecker(s store.Store, staleAfter time.Duration, log *zap.Logger) *Checker {
	return &Checker{store: s, staleAfter: staleAfter, log: log, now: time.Now}
}

// Evaluate resolves every measurement to its sensor, device, and room limits
// and returns the violations. A batch whose earliest timestamp is older than
// the staleness window is ignored entirely: backlog flushed by a reconnecting
// device must not raise fresh escalations. Sensors without a resolvable
// device or without a limit for their type are skipped. Missing configuration
// fails open: no limit, no violation.
func (c *Checker) Evaluate(ctx context.Context, measurements []model.Measurement) ([]Violation, error) {
	if len(measurements) == 0 {
		return nil, nil
	}

	earliest := measurements[0].Timestamp
	for _, m := range measurements[1:] {
		if m.Timestamp.Before(earliest) {
			earliest = m.Timestamp
		}
	}
	if earliest.Before(c.now().Add(-c.staleAfter)) {
		c.log.Info("ignoring stale measurement batch", zap.Time("earliest", earliest))
		return nil, nil
	}

	var violations []Violation
	for _, m := range measurements {
		sensor, err := c.store.SensorByID(ctx, m.SensorID)
		if err != nil {
			if err == store.ErrNotFound {
				c.log.Warn("measurement references unknown sensor", zap.Int64("sensor_id", m.SensorID))
				continue
			}
			return nil, err
		}

		device, err := c.store.DeviceBySensorID(ctx, sensor.ID)
		if err != nil {
			if err == store.ErrNotFound {
				continue
			}
			return nil, err
		}

		limits, err := c.store.LimitsForDevice(ctx, device.ID)
		if err != nil {
			return nil, err
		}

		limit, ok := limitFor(limits, sensor.Type)
		if !ok {
			continue
		}
		if limit.Violates(m.Value) {
			violations = append(violations, Violation{
				Measurement: m,
				Device:      device,
				SensorType:  sensor.Type,
				Limit:       limit,
			})
		}
	}
	return violations, nil
}

// limitFor returns the first limit configured for the sensor type.
func limitFor(limits []model.Limit, t model.SensorType) (model.Limit, bool) {
	for _, l := range limits {
		if l.SensorType == t && l.Valid() {
			return l, true
		}
	}
	return model.Limit{}, false
}
