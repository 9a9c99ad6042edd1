package model

import "time"

// NotificationKind discriminates the notification payload variants.
type NotificationKind string

const (
	KindWarning NotificationKind = "warning"
	KindDevice  NotificationKind = "device"
)

// NotificationSeverity grades device notifications.
type NotificationSeverity string

const (
	SeverityInfo    NotificationSeverity = "info"
	SeverityWarning NotificationSeverity = "warning"
	SeverityError   NotificationSeverity = "error"
)

// NotificationAction is an action a recipient may take on a notification.
type NotificationAction string

const (
	ActionConfirm NotificationAction = "confirm"
	ActionIgnore  NotificationAction = "ignore"
	ActionDelete  NotificationAction = "delete"
)

// DeviceKind tags which device class a device notification refers to.
type DeviceKind string

const (
	DeviceKindAccessPoint  DeviceKind = "access_point"
	DeviceKindSensorDevice DeviceKind = "sensor_device"
	DeviceKindServer       DeviceKind = "server"
)

// Notification is one entry in a user's bell list. Each recipient owns an
// independent row; dismissing it never affects another recipient's copy.
// The variant-specific payload is flat columns discriminated by Kind.
type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement"`
	UserID    int64            `gorm:"index;not null"`
	Kind      NotificationKind `gorm:"size:16;not null"`
	Header    string           `gorm:"size:128;not null"`
	Message   string           `gorm:"size:1024;not null"`
	CreatedAt time.Time        `gorm:"not null"`

	// warning variant
	TokenContent *string `gorm:"size:64;index"`

	// device variant
	DeviceKind DeviceKind           `gorm:"size:16"`
	DeviceID   int64                ``
	Severity   NotificationSeverity `gorm:"size:16"`
}

// Actions returns the action set valid for the notification's variant.
func (n Notification) Actions() []NotificationAction {
	switch n.Kind {
	case KindWarning:
		return []NotificationAction{ActionConfirm, ActionIgnore}
	default:
		return []NotificationAction{ActionDelete}
	}
}
