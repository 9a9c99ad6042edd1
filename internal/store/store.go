package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"facility-monitor-backend/internal/model"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	Transaction(ctx context.Context, fn func(Store) error) error

	// Devices and rooms
	AccessPointByID(ctx context.Context, id int64) (*model.AccessPoint, error)
	SaveAccessPoint(ctx context.Context, ap *model.AccessPoint) error
	StaleConnectedAccessPoints(ctx context.Context, cutoff time.Time) ([]model.AccessPoint, error)
	SensorByID(ctx context.Context, id int64) (*model.Sensor, error)
	DeviceByID(ctx context.Context, id int64) (*model.SensorDevice, error)
	DeviceBySensorID(ctx context.Context, sensorID int64) (*model.SensorDevice, error)
	LimitsForDevice(ctx context.Context, deviceID int64) ([]model.Limit, error)
	SaveLimit(ctx context.Context, limit *model.Limit) error
	Rooms(ctx context.Context) ([]model.Room, error)

	// Users
	UserByID(ctx context.Context, id int64) (*model.User, error)
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	OwnerOfDevice(ctx context.Context, deviceID int64) (*model.User, error)
	UsersByRole(ctx context.Context, role model.UserRole) ([]model.User, error)

	// Measurements
	SaveMeasurements(ctx context.Context, measurements []model.Measurement) error

	// Warnings
	ActiveWarning(ctx context.Context, deviceID int64, sensorType model.SensorType) (*model.Warning, error)
	WarningByID(ctx context.Context, id int64) (*model.Warning, error)
	WarningByToken(ctx context.Context, content string) (*model.Warning, error)
	SaveWarning(ctx context.Context, w *model.Warning) error
	DeleteWarning(ctx context.Context, id int64) error

	// Tokens
	TokenByContent(ctx context.Context, content string) (*model.Token, error)
	SaveToken(ctx context.Context, token *model.Token) error
	PurgeConsumedTokens(ctx context.Context, consumedBefore time.Time) (int64, error)

	// Notifications
	SaveNotification(ctx context.Context, n *model.Notification) error
	NotificationByID(ctx context.Context, id int64) (*model.Notification, error)
	NotificationsByUser(ctx context.Context, userID int64) ([]model.Notification, error)
	DeleteNotification(ctx context.Context, id int64) error
	DeleteNotificationsByToken(ctx context.Context, tokenContent string) error

	// Time records
	OpenTimeRecord(ctx context.Context, userID int64) (*model.TimeRecord, error)
	OpenTimeRecords(ctx context.Context) ([]model.TimeRecord, error)
	SaveTimeRecord(ctx context.Context, tr *model.TimeRecord) error

	// Push subscriptions
	SubscriptionsByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a store bound to a single transaction.
func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
