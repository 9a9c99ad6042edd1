package devices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"facility-monitor-backend/internal/metrics"
	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/notification"
	"facility-monitor-backend/internal/store"
)

// DevicePublisher receives device lifecycle events for fan-out.
type DevicePublisher interface {
	PublishDevice(ctx context.Context, ev notification.DeviceEvent) error
}

// Service tracks access point liveness. Heartbeats and uploads refresh the
// connection state; the watchdog marks silent access points as disconnected.
type Service struct {
	store            store.Store
	publisher        DevicePublisher
	heartbeatTimeout time.Duration
	log              *zap.Logger
	now              func() time.Time
}

// NewService creates a device service.
func NewService(s store.Store, publisher DevicePublisher, heartbeatTimeout time.Duration, log *zap.Logger) *Service {
	return &Service{
		store:            s,
		publisher:        publisher,
		heartbeatTimeout: heartbeatTimeout,
		log:              log,
		now:              time.Now,
	}
}

// Heartbeat records a sign of life from an access point. Unknown access
// points are created in unregistered state so an administrator can enable
// them; a reconnect after downtime is announced.
func (s *Service) Heartbeat(ctx context.Context, accessPointID int64) error {
	now := s.now()

	ap, err := s.store.AccessPointByID(ctx, accessPointID)
	if errors.Is(err, store.ErrNotFound) {
		ap = &model.AccessPoint{
			ID:             accessPointID,
			Status:         model.DeviceUnregistered,
			Connected:      true,
			LastConnection: now,
		}
		if err := s.store.SaveAccessPoint(ctx, ap); err != nil {
			return err
		}
		s.log.Info("unknown access point announced itself", zap.Int64("access_point_id", accessPointID))
		return s.publisher.PublishDevice(ctx, notification.DeviceEvent{
			DeviceKind: model.DeviceKindAccessPoint,
			DeviceID:   accessPointID,
			Severity:   model.SeverityInfo,
			Message:    fmt.Sprintf("A new access point (ID %d) registered and awaits approval.", accessPointID),
		})
	}
	if err != nil {
		return err
	}

	wasConnected := ap.Connected
	ap.Connected = true
	ap.LastConnection = now
	if err := s.store.SaveAccessPoint(ctx, ap); err != nil {
		return err
	}

	if !wasConnected {
		s.log.Info("access point reconnected", zap.Int64("access_point_id", accessPointID))
		return s.publisher.PublishDevice(ctx, notification.DeviceEvent{
			DeviceKind: model.DeviceKindAccessPoint,
			DeviceID:   accessPointID,
			Severity:   model.SeverityInfo,
			Message:    fmt.Sprintf("Access point %d is connected again.", accessPointID),
		})
	}
	return nil
}

// Active reports whether the access point exists and is enabled for ingest.
func (s *Service) Active(ctx context.Context, accessPointID int64) (bool, error) {
	ap, err := s.store.AccessPointByID(ctx, accessPointID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ap.Status == model.DeviceEnabled, nil
}

// CheckConnections is the watchdog pass: every enabled access point still
// marked connected whose last sign of life predates the heartbeat timeout is
// flagged disconnected and announced to the administrators.
func (s *Service) CheckConnections(ctx context.Context) error {
	cutoff := s.now().Add(-s.heartbeatTimeout)
	stale, err := s.store.StaleConnectedAccessPoints(ctx, cutoff)
	if err != nil {
		return err
	}

	for i := range stale {
		ap := &stale[i]
		ap.Connected = false
		if err := s.store.SaveAccessPoint(ctx, ap); err != nil {
			return err
		}
		metrics.WatchdogDisconnects.Inc()
		s.log.Warn("access point lost connection",
			zap.Int64("access_point_id", ap.ID),
			zap.Time("last_connection", ap.LastConnection))

		// The access point itself is unreachable, so the report comes
		// from the server's perspective.
		if err := s.publisher.PublishDevice(ctx, notification.DeviceEvent{
			DeviceKind: model.DeviceKindServer,
			DeviceID:   ap.ID,
			Severity:   model.SeverityError,
			Message:    fmt.Sprintf("Access point %d lost its connection.", ap.ID),
		}); err != nil {
			return err
		}
	}
	return nil
}
