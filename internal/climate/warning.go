package climate

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"facility-monitor-backend/config"
	"facility-monitor-backend/internal/metrics"
	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/notification"
	"facility-monitor-backend/internal/store"
	"facility-monitor-backend/internal/token"
)

var (
	// ErrInvalidToken is returned for unknown or already consumed tokens.
	ErrInvalidToken = errors.New("token is not valid")
	// ErrWarningNotFound is returned when a valid token no longer points at a warning.
	ErrWarningNotFound = errors.New("warning not found")
	// ErrInvalidStatus is returned when an action link carries a status other
	// than confirmed or ignored.
	ErrInvalidStatus = errors.New("status not allowed")
)

// WarningPublisher receives warning status changes for fan-out.
type WarningPublisher interface {
	PublishWarning(ctx context.Context, ev notification.WarningEvent) error
}

// WorkModeSource reports a user's current work mode, used to gate unseen
// warning renewals on presence.
type WorkModeSource interface {
	CurrentWorkMode(ctx context.Context, userID int64) (model.WorkMode, error)
}

// Machine drives the warning lifecycle. All evaluation for one
// (device, sensor type) pair is serialized, which upholds the invariant of at
// most one non-deleted warning per pair.
type Machine struct {
	store     store.Store
	tokens    *token.Manager
	publisher WarningPublisher
	presence  WorkModeSource
	cfg       config.WarningConfig
	locks     *keyedMutex
	log       *zap.Logger
	now       func() time.Time
}

// NewMachine creates a warning state machine.
func NewMachine(s store.Store, tokens *token.Manager, publisher WarningPublisher, presence WorkModeSource, cfg config.WarningConfig, log *zap.Logger) *Machine {
	return &Machine{
		store:     s,
		tokens:    tokens,
		publisher: publisher,
		presence:  presence,
		cfg:       cfg,
		locks:     newKeyedMutex(),
		log:       log,
		now:       time.Now,
	}
}

// Process feeds one limit violation into the lifecycle. Without an active
// warning a silent draft is created; with one, the elapsed time since the
// warning's timestamp decides whether it escalates, renews, or stays put.
func (m *Machine) Process(ctx context.Context, v Violation) error {
	unlock := m.locks.lock(v.Device.ID, v.SensorType)
	defer unlock()

	existing, err := m.store.ActiveWarning(ctx, v.Device.ID, v.SensorType)
	if err != nil {
		return err
	}
	if existing == nil {
		return m.createDraft(ctx, v)
	}
	return m.advance(ctx, existing, v)
}

// advance applies the time thresholds, measured from the warning's timestamp
// to the triggering measurement's timestamp.
func (m *Machine) advance(ctx context.Context, w *model.Warning, v Violation) error {
	elapsed := v.Measurement.Timestamp.Sub(w.Timestamp)
	if elapsed < 0 {
		// Out-of-order measurement. No time has passed, so nothing
		// transitions.
		m.log.Warn("measurement predates the active warning, skipping",
			zap.Int64("warning_id", w.ID), zap.Time("timestamp", v.Measurement.Timestamp))
		return nil
	}

	switch {
	case m.shouldRenew(elapsed, w.Status):
		return m.renew(ctx, w, v)

	case w.Status == model.WarningDraft && elapsed > m.minutes(m.cfg.DraftMinutes):
		w.Status = model.WarningUnseen
		w.Timestamp = v.Measurement.Timestamp
		w.MeasuredValue = v.Measurement.Value
		return m.transition(ctx, w, &v.Limit)

	case w.Status == model.WarningUnseen && elapsed > m.minutes(m.cfg.UnseenMinutes):
		present, err := m.ownerPresent(ctx, w.DeviceID)
		if err != nil {
			return err
		}
		if present {
			return m.renew(ctx, w, v)
		}
		// Nobody is there to act on it. Push the clock forward so the
		// next presence window gets a fresh chance before the ceiling.
		w.Timestamp = v.Measurement.Timestamp
		w.MeasuredValue = v.Measurement.Value
		return m.store.SaveWarning(ctx, w)
	}
	return nil
}

// shouldRenew applies the renewal thresholds: the hard ceiling for every
// status, plus the status-specific windows for confirmed and ignored.
func (m *Machine) shouldRenew(elapsed time.Duration, status model.WarningStatus) bool {
	if elapsed > m.minutes(m.cfg.DestroyMinutes) {
		return true
	}
	switch status {
	case model.WarningConfirmed:
		return elapsed > m.minutes(m.cfg.ConfirmedMinutes)
	case model.WarningIgnored:
		return elapsed > m.minutes(m.cfg.IgnoredMinutes)
	}
	return false
}

// renew retires the old warning and starts the cycle over with a fresh draft
// carrying the latest measurement.
func (m *Machine) renew(ctx context.Context, w *model.Warning, v Violation) error {
	if err := m.deleteWarning(ctx, w); err != nil {
		return err
	}
	metrics.WarningRenewals.Inc()
	return m.createDraft(ctx, v)
}

func (m *Machine) createDraft(ctx context.Context, v Violation) error {
	w := &model.Warning{
		DeviceID:      v.Device.ID,
		SensorType:    v.SensorType,
		Timestamp:     v.Measurement.Timestamp,
		MeasuredValue: v.Measurement.Value,
		Status:        model.WarningDraft,
	}
	if err := m.store.SaveWarning(ctx, w); err != nil {
		return err
	}
	metrics.WarningsCreated.Inc()
	m.log.Debug("draft warning created",
		zap.Int64("device_id", w.DeviceID), zap.String("sensor_type", string(w.SensorType)))
	return nil
}

// deleteWarning removes the row, consumes the token, and announces the
// deletion unless the warning never left the draft stage.
func (m *Machine) deleteWarning(ctx context.Context, w *model.Warning) error {
	wasDraft := w.Status == model.WarningDraft

	if w.TokenContent != nil {
		if err := m.tokens.Consume(ctx, *w.TokenContent); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	if err := m.store.DeleteWarning(ctx, w.ID); err != nil {
		return err
	}
	metrics.WarningTransitions.WithLabelValues(model.WarningDeleted.String()).Inc()

	if wasDraft {
		return nil
	}
	deleted := *w
	deleted.Status = model.WarningDeleted
	return m.publisher.PublishWarning(ctx, notification.WarningEvent{Warning: deleted})
}

// transition persists a status change, reconciles the token, and publishes
// the event.
func (m *Machine) transition(ctx context.Context, w *model.Warning, limit *model.Limit) error {
	if err := m.store.SaveWarning(ctx, w); err != nil {
		return err
	}
	if err := m.tokens.Reconcile(ctx, w); err != nil {
		return err
	}
	metrics.WarningTransitions.WithLabelValues(w.Status.String()).Inc()
	m.log.Info("warning transitioned",
		zap.Int64("warning_id", w.ID),
		zap.String("status", w.Status.String()),
		zap.Int64("device_id", w.DeviceID),
		zap.String("sensor_type", string(w.SensorType)))
	return m.publisher.PublishWarning(ctx, notification.WarningEvent{Warning: *w, Limit: limit})
}

// ApplyAction resolves a confirm/ignore link. The token must exist and be
// unconsumed; a consumed or unknown token fails, and a valid token whose
// warning has since been renewed away reports the warning as gone. The token
// check runs under the pair lock, so one token never authorizes more than one
// transition.
func (m *Machine) ApplyAction(ctx context.Context, tokenContent string, status model.WarningStatus) (*model.Warning, error) {
	if status != model.WarningConfirmed && status != model.WarningIgnored {
		return nil, ErrInvalidStatus
	}

	// Unlocked peek, only to learn the lock key. Device and sensor type
	// never change for a warning row.
	peek, err := m.store.WarningByToken(ctx, tokenContent)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if !m.tokens.Validate(ctx, tokenContent) {
				return nil, ErrInvalidToken
			}
			return nil, ErrWarningNotFound
		}
		return nil, err
	}

	unlock := m.locks.lock(peek.DeviceID, peek.SensorType)
	defer unlock()

	// Re-check under the lock: a concurrent action or renewal may have
	// consumed the token or replaced the warning meanwhile.
	if !m.tokens.Validate(ctx, tokenContent) {
		return nil, ErrInvalidToken
	}
	w, err := m.store.WarningByToken(ctx, tokenContent)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWarningNotFound
		}
		return nil, err
	}

	w.Status = status
	w.Timestamp = m.now()
	if err := m.transition(ctx, w, nil); err != nil {
		return nil, err
	}
	return w, nil
}

// ownerPresent reports whether the device owner's current work mode implies
// presence. A device without an owner counts as absent.
func (m *Machine) ownerPresent(ctx context.Context, deviceID int64) (bool, error) {
	owner, err := m.store.OwnerOfDevice(ctx, deviceID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	mode, err := m.presence.CurrentWorkMode(ctx, owner.ID)
	if err != nil {
		return false, err
	}
	return mode.Present(), nil
}

func (m *Machine) minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
