package model

import "time"

// Warning tracks one active limit violation for a (device, sensor type) pair.
// At most one non-deleted warning may exist per pair; renewals delete the row
// and create a fresh draft.
type Warning struct {
	ID            int64         `gorm:"primaryKey;autoIncrement"`
	DeviceID      int64         `gorm:"index:idx_warnings_device_type;not null"`
	SensorType    SensorType    `gorm:"index:idx_warnings_device_type;size:32;not null"`
	Timestamp     time.Time     `gorm:"not null"`
	MeasuredValue float64       `gorm:"not null"`
	Status        WarningStatus `gorm:"not null;default:0"`
	TokenContent  *string       `gorm:"size:64"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Token is a single-use credential authorizing one confirm/ignore action on
// its warning. Consumed tokens keep their row for a grace period, with the
// live link to the warning severed.
type Token struct {
	Content    string `gorm:"primaryKey;size:64"`
	Consumed   bool   `gorm:"not null;default:false"`
	ConsumedAt *time.Time
	WarningID  *int64 `gorm:"index"`
	CreatedAt  time.Time
}
