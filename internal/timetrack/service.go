package timetrack

import (
	"context"
	"time"

	"go.uber.org/zap"

	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/store"
)

// Service manages time records: every user has at most one open record, and
// the latest open record's work mode doubles as the user's presence signal.
type Service struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewService creates a time tracking service.
func NewService(s store.Store, log *zap.Logger) *Service {
	return &Service{store: s, log: log, now: time.Now}
}

// Record closes the user's open record and starts a new one with the given
// work mode and metadata. start may be zero, in which case now is used.
func (s *Service) Record(ctx context.Context, userID int64, mode model.WorkMode, project, workGroup, description string, start time.Time) (*model.TimeRecord, error) {
	if start.IsZero() {
		start = s.now()
	}

	open, err := s.store.OpenTimeRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		end := start
		open.EndTime = &end
		if err := s.store.SaveTimeRecord(ctx, open); err != nil {
			return nil, err
		}
	}

	record := &model.TimeRecord{
		UserID:      userID,
		StartTime:   start,
		WorkMode:    mode,
		Project:     project,
		WorkGroup:   workGroup,
		Description: description,
	}
	if err := s.store.SaveTimeRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// CurrentWorkMode returns the work mode of the user's open record, or out of
// office when no record is open.
func (s *Service) CurrentWorkMode(ctx context.Context, userID int64) (model.WorkMode, error) {
	open, err := s.store.OpenTimeRecord(ctx, userID)
	if err != nil {
		return "", err
	}
	if open == nil {
		return model.ModeOutOfOffice, nil
	}
	return open.WorkMode, nil
}

// Rollover splits records left open across midnight: each is closed at the
// last second of its start day and continued by a fresh open record on the
// next day carrying the same mode, project, work group, and description.
func (s *Service) Rollover(ctx context.Context) error {
	open, err := s.store.OpenTimeRecords(ctx)
	if err != nil {
		return err
	}

	today := truncateToDay(s.now())
	for i := range open {
		record := &open[i]
		startDay := truncateToDay(record.StartTime)
		if !startDay.Before(today) {
			continue
		}

		dayEnd := startDay.Add(24*time.Hour - time.Second)
		record.EndTime = &dayEnd
		if err := s.store.SaveTimeRecord(ctx, record); err != nil {
			return err
		}

		continuation := &model.TimeRecord{
			UserID:      record.UserID,
			StartTime:   startDay.Add(24 * time.Hour),
			WorkMode:    record.WorkMode,
			Project:     record.Project,
			WorkGroup:   record.WorkGroup,
			Description: record.Description,
		}
		if err := s.store.SaveTimeRecord(ctx, continuation); err != nil {
			return err
		}
		s.log.Info("rolled open time record over",
			zap.Int64("user_id", record.UserID),
			zap.Time("start_day", startDay))
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
