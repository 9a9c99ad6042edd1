package store

import (
	"context"
	"fmt"
	"time"

	"facility-monitor-backend/internal/model"
)

func (s *gormStore) AccessPointByID(ctx context.Context, id int64) (*model.AccessPoint, error) {
	var ap model.AccessPoint
	if err := s.db.WithContext(ctx).First(&ap, id).Error; err != nil {
		return nil, translate(err)
	}
	return &ap, nil
}

func (s *gormStore) SaveAccessPoint(ctx context.Context, ap *model.AccessPoint) error {
	return s.db.WithContext(ctx).Save(ap).Error
}

// StaleConnectedAccessPoints returns enabled, connected access points whose
// last heartbeat is older than the cutoff.
func (s *gormStore) StaleConnectedAccessPoints(ctx context.Context, cutoff time.Time) ([]model.AccessPoint, error) {
	var aps []model.AccessPoint
	err := s.db.WithContext(ctx).
		Where("status = ? AND connected = ? AND last_connection < ?", model.DeviceEnabled, true, cutoff).
		Find(&aps).Error
	if err != nil {
		return nil, err
	}
	return aps, nil
}

func (s *gormStore) SensorByID(ctx context.Context, id int64) (*model.Sensor, error) {
	var sensor model.Sensor
	if err := s.db.WithContext(ctx).First(&sensor, id).Error; err != nil {
		return nil, translate(err)
	}
	return &sensor, nil
}

func (s *gormStore) DeviceByID(ctx context.Context, id int64) (*model.SensorDevice, error) {
	var device model.SensorDevice
	if err := s.db.WithContext(ctx).Preload("Sensors").First(&device, id).Error; err != nil {
		return nil, translate(err)
	}
	return &device, nil
}

func (s *gormStore) DeviceBySensorID(ctx context.Context, sensorID int64) (*model.SensorDevice, error) {
	sensor, err := s.SensorByID(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	return s.DeviceByID(ctx, sensor.DeviceID)
}

// LimitsForDevice resolves the owning room of a device and returns its limit
// set. An empty slice (not an error) is returned when the device is not wired
// to a room: missing configuration fails open.
func (s *gormStore) LimitsForDevice(ctx context.Context, deviceID int64) ([]model.Limit, error) {
	var device model.SensorDevice
	if err := s.db.WithContext(ctx).First(&device, deviceID).Error; err != nil {
		return nil, translate(err)
	}
	if device.AccessPointID == nil {
		return nil, nil
	}

	var ap model.AccessPoint
	if err := s.db.WithContext(ctx).First(&ap, *device.AccessPointID).Error; err != nil {
		return nil, translate(err)
	}
	if ap.RoomID == nil {
		return nil, nil
	}

	var limits []model.Limit
	if err := s.db.WithContext(ctx).Where("room_id = ?", *ap.RoomID).Order("id").Find(&limits).Error; err != nil {
		return nil, err
	}
	return limits, nil
}

func (s *gormStore) SaveLimit(ctx context.Context, limit *model.Limit) error {
	if !limit.Valid() {
		return fmt.Errorf("limit for %s: upper bound %.2f below lower bound %.2f",
			limit.SensorType, limit.UpperBound, limit.LowerBound)
	}
	return s.db.WithContext(ctx).Save(limit).Error
}

func (s *gormStore) Rooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if err := s.db.WithContext(ctx).Preload("Limits").Order("id").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *gormStore) UserByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormStore) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// OwnerOfDevice returns the user assigned to a sensor device, or ErrNotFound
// if the device is unassigned.
func (s *gormStore) OwnerOfDevice(ctx context.Context, deviceID int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormStore) UsersByRole(ctx context.Context, role model.UserRole) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Where("role = ?", role).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *gormStore) SaveMeasurements(ctx context.Context, measurements []model.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&measurements).Error
}
