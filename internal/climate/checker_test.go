package climate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/store"
)

func seedCheckerFixture(t *testing.T, s store.Store) (sensorID int64) {
	t.Helper()
	ctx := context.Background()

	room := &model.Room{Name: "lab"}
	require.NoError(t, s.DB().Create(room).Error)
	require.NoError(t, s.SaveLimit(ctx, &model.Limit{
		RoomID:     room.ID,
		SensorType: model.SensorHumidity,
		LowerBound: 30,
		UpperBound: 60,
	}))

	ap := &model.AccessPoint{ID: 2, RoomID: &room.ID, Status: model.DeviceEnabled}
	require.NoError(t, s.SaveAccessPoint(ctx, ap))
	device := &model.SensorDevice{ID: 20, AccessPointID: &ap.ID}
	require.NoError(t, s.DB().Create(device).Error)
	sensor := &model.Sensor{ID: 200, DeviceID: device.ID, Type: model.SensorHumidity, Unit: "%"}
	require.NoError(t, s.DB().Create(sensor).Error)
	return sensor.ID
}

func TestChecker_ReportsViolations(t *testing.T) {
	s := newTestStore(t)
	sensorID := seedCheckerFixture(t, s)
	checker := NewChecker(s, 15*time.Minute, zap.NewNop())

	now := time.Now()
	violations, err := checker.Evaluate(context.Background(), []model.Measurement{
		{SensorID: sensorID, Timestamp: now, Value: 45}, // within range
		{SensorID: sensorID, Timestamp: now, Value: 75}, // above upper bound
	})
	require.NoError(t, err)

	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, 75.0, v.Measurement.Value)
	assert.Equal(t, model.SensorHumidity, v.SensorType)
	assert.Equal(t, int64(20), v.Device.ID)
	assert.Equal(t, 60.0, v.Limit.UpperBound)
}

func TestChecker_RejectsStaleBatches(t *testing.T) {
	s := newTestStore(t)
	sensorID := seedCheckerFixture(t, s)
	checker := NewChecker(s, 15*time.Minute, zap.NewNop())

	// A batch with one backlog reading is a reconnect flush: the whole batch
	// is ignored, even the fresh violating reading.
	violations, err := checker.Evaluate(context.Background(), []model.Measurement{
		{SensorID: sensorID, Timestamp: time.Now().Add(-16 * time.Minute), Value: 99},
		{SensorID: sensorID, Timestamp: time.Now(), Value: 99},
	})
	require.NoError(t, err)
	assert.Empty(t, violations, "stale batches must not trigger warnings")
}

func TestChecker_SkipsUnknownSensors(t *testing.T) {
	s := newTestStore(t)
	seedCheckerFixture(t, s)
	checker := NewChecker(s, 15*time.Minute, zap.NewNop())

	violations, err := checker.Evaluate(context.Background(), []model.Measurement{
		{SensorID: 9999, Timestamp: time.Now(), Value: 99},
	})
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestChecker_FailsOpenWithoutLimits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Device whose access point has no room assignment.
	ap := &model.AccessPoint{ID: 3, Status: model.DeviceEnabled}
	require.NoError(t, s.SaveAccessPoint(ctx, ap))
	device := &model.SensorDevice{ID: 30, AccessPointID: &ap.ID}
	require.NoError(t, s.DB().Create(device).Error)
	sensor := &model.Sensor{ID: 300, DeviceID: device.ID, Type: model.SensorLight}
	require.NoError(t, s.DB().Create(sensor).Error)

	checker := NewChecker(s, 15*time.Minute, zap.NewNop())
	violations, err := checker.Evaluate(ctx, []model.Measurement{
		{SensorID: sensor.ID, Timestamp: time.Now(), Value: 100000},
	})
	require.NoError(t, err)
	assert.Empty(t, violations, "missing configuration fails open")
}
