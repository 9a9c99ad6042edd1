package notification

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"facility-monitor-backend/internal/metrics"
	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/store"
)

// Dispatcher fans warning and device events out to the delivery channels.
// Bell writes are synchronous with the publishing transition; email and web
// push are best effort and dispatched off the critical path.
type Dispatcher struct {
	store   store.Store
	mailer  Mailer
	push    *PushPool
	log     *zap.Logger
	baseURL string

	mailAttempts int
}

// NewDispatcher creates a dispatcher. mailer and push may be nil, disabling
// the respective channel.
func NewDispatcher(s store.Store, mailer Mailer, push *PushPool, baseURL string, mailAttempts int, log *zap.Logger) *Dispatcher {
	if mailAttempts <= 0 {
		mailAttempts = 1
	}
	return &Dispatcher{
		store:        s,
		mailer:       mailer,
		push:         push,
		log:          log,
		baseURL:      baseURL,
		mailAttempts: mailAttempts,
	}
}

// PublishWarning reacts to a warning status change. An UNSEEN warning
// produces one bell notification plus an email for the device owner; a
// confirmed, ignored, or deleted warning removes the bell entry tied to its
// token. Draft-stage changes are silent.
func (d *Dispatcher) PublishWarning(ctx context.Context, ev WarningEvent) error {
	switch ev.Warning.Status {
	case model.WarningUnseen:
		return d.escalate(ctx, ev)
	case model.WarningConfirmed, model.WarningIgnored, model.WarningDeleted:
		if ev.Warning.TokenContent == nil {
			return nil
		}
		return d.store.DeleteNotificationsByToken(ctx, *ev.Warning.TokenContent)
	}
	return nil
}

func (d *Dispatcher) escalate(ctx context.Context, ev WarningEvent) error {
	owner, err := d.store.OwnerOfDevice(ctx, ev.Warning.DeviceID)
	if errors.Is(err, store.ErrNotFound) {
		d.log.Info("warning escalated on unassigned device, no recipient",
			zap.Int64("device_id", ev.Warning.DeviceID))
		return nil
	}
	if err != nil {
		return err
	}

	message := warningBellMessage(ev.Warning, ev.Limit)
	bell := &model.Notification{
		UserID:       owner.ID,
		Kind:         model.KindWarning,
		Header:       "Room Climate Violation",
		Message:      message,
		TokenContent: ev.Warning.TokenContent,
		CreatedAt:    time.Now(),
	}
	if err := d.store.SaveNotification(ctx, bell); err != nil {
		return err
	}
	metrics.NotificationsDelivered.WithLabelValues("bell").Inc()

	if d.push != nil {
		d.push.Dispatch(owner.ID, []byte(message))
	}
	if d.mailer != nil && owner.Email != "" {
		body := warningMailBody(d.baseURL, ev.Warning, ev.Limit)
		d.sendMailAsync(owner.Email, "New Room Climate Violation", body)
	}
	return nil
}

// PublishDevice fans a device event out to every administrator, each getting
// an independent copy, plus the owning user when the event concerns an
// assigned sensor device.
func (d *Dispatcher) PublishDevice(ctx context.Context, ev DeviceEvent) error {
	admins, err := d.store.UsersByRole(ctx, model.RoleAdmin)
	if err != nil {
		return err
	}

	recipients := make([]model.User, 0, len(admins)+1)
	recipients = append(recipients, admins...)

	if ev.DeviceKind == model.DeviceKindSensorDevice {
		owner, err := d.store.OwnerOfDevice(ctx, ev.DeviceID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if owner != nil && !containsUser(recipients, owner.ID) {
			recipients = append(recipients, *owner)
		}
	}

	for _, recipient := range recipients {
		n := &model.Notification{
			UserID:     recipient.ID,
			Kind:       model.KindDevice,
			Header:     headerFor(ev.DeviceKind),
			Message:    ev.Message,
			DeviceKind: ev.DeviceKind,
			DeviceID:   ev.DeviceID,
			Severity:   ev.Severity,
			CreatedAt:  time.Now(),
		}
		if err := d.store.SaveNotification(ctx, n); err != nil {
			return err
		}
		metrics.NotificationsDelivered.WithLabelValues("bell").Inc()

		if d.push != nil {
			d.push.Dispatch(recipient.ID, []byte(ev.Message))
		}
	}
	return nil
}

// sendMailAsync delivers off the request path with a bounded number of
// attempts. Failures are logged and swallowed.
func (d *Dispatcher) sendMailAsync(to, subject, body string) {
	go func() {
		var err error
		for attempt := 1; attempt <= d.mailAttempts; attempt++ {
			if err = d.mailer.Send(to, subject, body); err == nil {
				metrics.NotificationsDelivered.WithLabelValues("email").Inc()
				return
			}
			time.Sleep(time.Duration(attempt) * time.Second)
		}
		d.log.Warn("mail delivery gave up", zap.String("to", to), zap.Error(err))
	}()
}

func headerFor(kind model.DeviceKind) string {
	switch kind {
	case model.DeviceKindAccessPoint:
		return "AP"
	case model.DeviceKindSensorDevice:
		return "Device"
	default:
		return "Server"
	}
}

func containsUser(users []model.User, id int64) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}
