package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"facility-monitor-backend/internal/model"
)

// ActiveWarning returns the single live warning for a (device, sensor type)
// pair, or nil when there is none. Deleted warnings do not exist as rows, so
// every stored warning is active by definition.
func (s *gormStore) ActiveWarning(ctx context.Context, deviceID int64, sensorType model.SensorType) (*model.Warning, error) {
	var w model.Warning
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND sensor_type = ?", deviceID, sensorType).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *gormStore) WarningByID(ctx context.Context, id int64) (*model.Warning, error) {
	var w model.Warning
	if err := s.db.WithContext(ctx).First(&w, id).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *gormStore) WarningByToken(ctx context.Context, content string) (*model.Warning, error) {
	var w model.Warning
	if err := s.db.WithContext(ctx).Where("token_content = ?", content).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *gormStore) SaveWarning(ctx context.Context, w *model.Warning) error {
	return s.db.WithContext(ctx).Save(w).Error
}

func (s *gormStore) DeleteWarning(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&model.Warning{}, id).Error
}

func (s *gormStore) TokenByContent(ctx context.Context, content string) (*model.Token, error) {
	var token model.Token
	if err := s.db.WithContext(ctx).Where("content = ?", content).First(&token).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (s *gormStore) SaveToken(ctx context.Context, token *model.Token) error {
	return s.db.WithContext(ctx).Save(token).Error
}

// PurgeConsumedTokens deletes consumed tokens whose consumption predates the
// cutoff and reports how many rows went away.
func (s *gormStore) PurgeConsumedTokens(ctx context.Context, consumedBefore time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("consumed = ? AND consumed_at < ?", true, consumedBefore).
		Delete(&model.Token{})
	return res.RowsAffected, res.Error
}

func (s *gormStore) SaveNotification(ctx context.Context, n *model.Notification) error {
	return s.db.WithContext(ctx).Save(n).Error
}

func (s *gormStore) NotificationByID(ctx context.Context, id int64) (*model.Notification, error) {
	var n model.Notification
	if err := s.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (s *gormStore) NotificationsByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	var notifications []model.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *gormStore) DeleteNotification(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&model.Notification{}, id).Error
}

func (s *gormStore) DeleteNotificationsByToken(ctx context.Context, tokenContent string) error {
	return s.db.WithContext(ctx).
		Where("token_content = ?", tokenContent).
		Delete(&model.Notification{}).Error
}

func (s *gormStore) OpenTimeRecord(ctx context.Context, userID int64) (*model.TimeRecord, error) {
	var tr model.TimeRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND end_time IS NULL", userID).
		First(&tr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

func (s *gormStore) OpenTimeRecords(ctx context.Context) ([]model.TimeRecord, error) {
	var records []model.TimeRecord
	if err := s.db.WithContext(ctx).Where("end_time IS NULL").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *gormStore) SaveTimeRecord(ctx context.Context, tr *model.TimeRecord) error {
	return s.db.WithContext(ctx).Save(tr).Error
}

func (s *gormStore) SubscriptionsByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Save(sub).Error
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}
