package notification

import "facility-monitor-backend/internal/model"

// WarningEvent is published by the warning engine whenever a warning changes
// status. Limit is the violated limit when the publisher has it at hand; it
// feeds the suggestion text of the outbound mail.
type WarningEvent struct {
	Warning model.Warning
	Limit   *model.Limit
}

// DeviceEvent is published for device lifecycle changes: connection
// established or lost, or a new device registered.
type DeviceEvent struct {
	DeviceKind model.DeviceKind
	DeviceID   int64
	Severity   model.NotificationSeverity
	Message    string
}
