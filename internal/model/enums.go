package model

// SensorType identifies the kind of climate value a sensor measures.
type SensorType string

const (
	SensorTemperature SensorType = "temperature"
	SensorHumidity    SensorType = "humidity"
	SensorAirQuality  SensorType = "air_quality"
	SensorLight       SensorType = "light"
)

// DisplayName returns the human-readable sensor type name used in messages.
func (s SensorType) DisplayName() string {
	switch s {
	case SensorTemperature:
		return "temperature"
	case SensorHumidity:
		return "humidity"
	case SensorAirQuality:
		return "air quality"
	case SensorLight:
		return "light"
	}
	return string(s)
}

// WarningStatus is the lifecycle state of a warning. The numeric values are
// embedded in confirm/ignore links, so the order is part of the wire contract.
type WarningStatus int

const (
	WarningDraft WarningStatus = iota
	WarningUnseen
	WarningIgnored
	WarningConfirmed
	WarningDeleted
)

func (s WarningStatus) String() string {
	switch s {
	case WarningDraft:
		return "DRAFT"
	case WarningUnseen:
		return "UNSEEN"
	case WarningIgnored:
		return "IGNORED"
	case WarningConfirmed:
		return "CONFIRMED"
	case WarningDeleted:
		return "DELETED"
	}
	return "UNKNOWN"
}

// WorkMode is a user's current activity state from their open time record.
type WorkMode string

const (
	ModeAvailable   WorkMode = "available"
	ModeMeeting     WorkMode = "meeting"
	ModeDeepWork    WorkMode = "deep_work"
	ModeOutOfOffice WorkMode = "out_of_office"
)

// Present reports whether the mode implies physical presence in the room.
func (m WorkMode) Present() bool {
	return m == ModeAvailable || m == ModeDeepWork
}

// DeviceStatus is the administrative state of an access point or sensor device.
type DeviceStatus string

const (
	DeviceEnabled      DeviceStatus = "enabled"
	DeviceDisabled     DeviceStatus = "disabled"
	DeviceUnregistered DeviceStatus = "unregistered"
)

// UserRole determines notification fan-out targets.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleManager   UserRole = "manager"
	RoleGroupLead UserRole = "group_lead"
	RoleEmployee  UserRole = "employee"
)
